package assemble

import "errors"

var (
	ErrBuild               = errors.New("build failed")
	ErrCommandFailed       = errors.New("command failed")
	ErrCopy                = errors.New("copy failed")
	ErrFileSystemOperation = errors.New("file system operation failed")
	ErrInvalidStages       = errors.New("invalid stage chain")
)
