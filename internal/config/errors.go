package config

import "errors"

var (
	ErrConfigMissing = errors.New("configuration file missing")
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrUnpinnedImage = errors.New("base image reference is not pinned")
	ErrNoCredentials = errors.New("registry credentials not set")
)
