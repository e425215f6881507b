package protocol

import (
	"errors"
	"fmt"
)

// Common errors for protocol parsing and payload streaming.
var (
	// ErrMalformedRequest indicates a request line with fewer than 3 tokens
	ErrMalformedRequest = errors.New("malformed request line")

	// ErrInvalidFilename indicates a filename outside the allowed charset
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrInvalidSize indicates a non-numeric size token
	ErrInvalidSize = errors.New("invalid size token")

	// ErrUnknownCommand indicates a command other than UPLOAD or GET
	ErrUnknownCommand = errors.New("unknown command")

	// ErrFileNotFound indicates the requested file is absent from storage
	ErrFileNotFound = errors.New("file not found")

	// ErrSizeMismatch indicates more payload bytes arrived than were declared
	ErrSizeMismatch = errors.New("received more data than declared size")

	// ErrIncompleteTransfer indicates the stream closed before the declared
	// byte count arrived
	ErrIncompleteTransfer = errors.New("incomplete transfer")

	// ErrConnectionBroken indicates a zero-byte send signaling peer closure
	ErrConnectionBroken = errors.New("socket connection broken")

	// ErrTruncatedHeader indicates the stream closed before the header
	// delimiter appeared
	ErrTruncatedHeader = errors.New("stream closed before header delimiter")
)

// Wire messages carried in the data field of ERROR responses. The strings
// are part of the protocol and must not change.
const (
	MsgMalformedRequest   = "Invalid command format"
	MsgInvalidFilename    = "Invalid filename"
	MsgInvalidSize        = "Invalid file size"
	MsgUnknownCommand     = "Invalid command"
	MsgFileNotFound       = "File not found"
	MsgSizeMismatch       = "File size smaller than received data"
	MsgIncompleteTransfer = "Incomplete file received"
)

// ResponseMessage maps a protocol error to the wire message sent back in
// an ERROR response. Errors without a fixed wire message fall back to
// their Error() text.
func ResponseMessage(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRequest):
		return MsgMalformedRequest
	case errors.Is(err, ErrInvalidFilename):
		return MsgInvalidFilename
	case errors.Is(err, ErrInvalidSize):
		return MsgInvalidSize
	case errors.Is(err, ErrUnknownCommand):
		return MsgUnknownCommand
	case errors.Is(err, ErrFileNotFound):
		return MsgFileNotFound
	case errors.Is(err, ErrSizeMismatch):
		return MsgSizeMismatch
	case errors.Is(err, ErrIncompleteTransfer):
		return MsgIncompleteTransfer
	default:
		return err.Error()
	}
}

// TransferError represents a protocol or transfer failure with
// additional context.
type TransferError struct {
	Op   string // operation that caused the error
	File string // filename if relevant
	Err  error  // underlying error
}

func (e *TransferError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("transfer %s %s: %v", e.Op, e.File, e.Err)
	}
	return fmt.Sprintf("transfer %s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
