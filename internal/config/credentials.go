package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables carrying the injected registry credentials.
const (
	EnvRegistryUser  = "SLIPWAY_REGISTRY_USER"
	EnvRegistryToken = "SLIPWAY_REGISTRY_TOKEN"
)

// Registry credentials injected through the environment.
type Credentials struct {
	Username string
	Token    string
}

// Reads registry credentials from the environment.
//
// A .env file in dir seeds missing variables first (existing environment
// values win, matching godotenv semantics). Returns [ErrNoCredentials] when
// either variable is unset; pushing without credentials is never attempted.
func LoadCredentials(dir string) (Credentials, error) {
	// Ignore a missing .env; the environment may already be populated.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	creds := Credentials{
		Username: os.Getenv(EnvRegistryUser),
		Token:    os.Getenv(EnvRegistryToken),
	}

	if creds.Username == "" || creds.Token == "" {
		return Credentials{}, ErrNoCredentials
	}

	return creds, nil
}
