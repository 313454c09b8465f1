package database

import "github.com/pkg/errors"

var (
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrNotFound             = errors.New("not found")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrOutOfMemory          = errors.New("out of memory")
	ErrBufferTooSmall       = errors.New("output buffer too small")
	ErrClosed               = errors.New("store is closed")
	ErrStoreNotFound        = errors.New("store not found")
	ErrStoreExists          = errors.New("store already exists")
)
