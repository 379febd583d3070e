package buffer

import "errors"

var (
	// ErrNoFreeFrame is returned by Pin when no buffer became available within the maximum wait time. The pool is
	// still consistent; the caller usually aborts its transaction and retries.
	ErrNoFreeFrame = errors.New("no free frame")
	// ErrInvalidUnpin is the panic value (wrapped) raised when a buffer is unpinned more often than it was pinned.
	ErrInvalidUnpin = errors.New("unpin of a buffer that is not pinned")
	// ErrInvalidPoolSize is the panic value raised when a pool is built with no buffers.
	ErrInvalidPoolSize = errors.New("invalid pool size")
	// ErrUnknownStrategy is returned by NewStrategy for names it does not recognise.
	ErrUnknownStrategy = errors.New("unknown replacement strategy")
)
