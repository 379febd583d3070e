package file

import "errors"

var (
	ErrEmptyFilename  = errors.New("empty filename")
	ErrNegativeBlock  = errors.New("negative block number")
	ErrInvalidUTF8    = errors.New("invalid UTF-8 encoding")
	ErrOffsetOutRange = errors.New("page offset out of range")
	ErrClosed         = errors.New("file manager is closed")
)
