// Package limits provides centralized size limits for the file transfer
// protocol. This ensures consistent validation across different components
// of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// ChunkSize is the buffer size for socket and file I/O (512 KiB).
	// Large enough to amortize system-call overhead on big transfers
	// while keeping header reads fast.
	ChunkSize = 512 * 1024

	// MaxHeaderBytes is the maximum number of bytes accumulated while
	// scanning for the header delimiter. This prevents memory exhaustion
	// from a peer that never sends the delimiter (1 MiB limit).
	MaxHeaderBytes = 1024 * 1024

	// MaxFileNameLength is the maximum allowed file name length in bytes.
	// The value (255) matches typical filesystem limits.
	MaxFileNameLength = 255
)

var (
	// ErrHeaderTooLarge indicates the header exceeded MaxHeaderBytes
	// without a delimiter appearing.
	ErrHeaderTooLarge = errors.New("header too large")

	// ErrFileNameEmpty indicates an empty file name was provided.
	ErrFileNameEmpty = errors.New("empty file name")

	// ErrFileNameTooLong indicates a file name exceeds MaxFileNameLength.
	ErrFileNameTooLong = errors.New("file name too long")
)

// ValidateHeaderBuffer validates an accumulated header buffer against
// MaxHeaderBytes. Returns an error with context including the actual and
// maximum sizes.
func ValidateHeaderBuffer(buf []byte) error {
	if len(buf) > MaxHeaderBytes {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrHeaderTooLarge, len(buf), MaxHeaderBytes)
	}
	return nil
}

// ValidateFileNameLength validates a file name length against
// MaxFileNameLength. Returns an error with context if the name is empty
// or exceeds the limit.
func ValidateFileNameLength(name string) error {
	if len(name) == 0 {
		return ErrFileNameEmpty
	}
	if len(name) > MaxFileNameLength {
		return fmt.Errorf("%w: length %d exceeds limit %d", ErrFileNameTooLong, len(name), MaxFileNameLength)
	}
	return nil
}
