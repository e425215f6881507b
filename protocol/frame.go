package protocol

import (
	"bytes"
	"errors"
	"io"

	"github.com/opd-ai/fileserve/limits"
)

// Delimiter terminates the text header of every frame. Payload bytes
// following it are opaque and may contain the same sequence; their length
// is always taken from the header, never from scanning.
const Delimiter = "\r\n\r\n"

var delimiter = []byte(Delimiter)

// ReadHeader reads from r in chunks until the header delimiter has been
// observed, then returns the text preceding it and any bytes already read
// past it. Those leftover bytes belong to the subsequent payload stream
// and must be consumed before further reads.
//
// If the stream closes before the delimiter appears, ReadHeader returns
// the accumulated text, a nil leftover, and ErrTruncatedHeader.
func ReadHeader(r io.Reader) (string, []byte, error) {
	var buf []byte
	chunk := make([]byte, limits.ChunkSize)

	for {
		if i := bytes.Index(buf, delimiter); i >= 0 {
			leftover := append([]byte(nil), buf[i+len(delimiter):]...)
			return string(buf[:i]), leftover, nil
		}
		if err := limits.ValidateHeaderBuffer(buf); err != nil {
			return "", nil, err
		}

		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if i := bytes.Index(buf, delimiter); i >= 0 {
				leftover := append([]byte(nil), buf[i+len(delimiter):]...)
				return string(buf[:i]), leftover, nil
			}
			if errors.Is(err, io.EOF) {
				return string(buf), nil, ErrTruncatedHeader
			}
			return string(buf), nil, &TransferError{Op: "read header", Err: err}
		}
	}
}

// WriteHeader writes the header text followed by the delimiter. The two
// may be split across underlying writes; atomicity is only required at
// the application level.
func WriteHeader(w io.Writer, header string) error {
	if _, err := io.WriteString(w, header+Delimiter); err != nil {
		return &TransferError{Op: "write header", Err: err}
	}
	return nil
}

// WritePayload writes data to w in bounded chunks of at most ChunkSize
// bytes. A zero-byte write result indicates the peer closed the
// connection and yields ErrConnectionBroken.
func WritePayload(w io.Writer, data []byte) error {
	total := 0
	for total < len(data) {
		end := total + limits.ChunkSize
		if end > len(data) {
			end = len(data)
		}
		n, err := w.Write(data[total:end])
		if err != nil {
			return &TransferError{Op: "write payload", Err: err}
		}
		if n == 0 {
			return ErrConnectionBroken
		}
		total += n
	}
	return nil
}

// CopyPayload moves exactly declared payload bytes from src to dst,
// consuming leftover first. Reads are bounded so that no byte past the
// declared boundary is ever taken from src.
//
// Returns the number of bytes written to dst. If src closes before the
// declared count arrives, the error is ErrIncompleteTransfer; if leftover
// already exceeds the declared count, nothing is written and the error is
// ErrSizeMismatch.
func CopyPayload(dst io.Writer, src io.Reader, leftover []byte, declared uint64) (uint64, error) {
	if uint64(len(leftover)) > declared {
		return 0, ErrSizeMismatch
	}

	var written uint64
	if len(leftover) > 0 {
		if _, err := dst.Write(leftover); err != nil {
			return 0, &TransferError{Op: "write payload", Err: err}
		}
		written = uint64(len(leftover))
	}

	if written == declared {
		return written, nil
	}

	buf := make([]byte, limits.ChunkSize)
	for written < declared {
		bound := declared - written
		if bound > uint64(len(buf)) {
			bound = uint64(len(buf))
		}

		n, err := src.Read(buf[:bound])
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, &TransferError{Op: "write payload", Err: werr}
			}
			written += uint64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if written < declared {
					return written, ErrIncompleteTransfer
				}
				return written, nil
			}
			return written, &TransferError{Op: "read payload", Err: err}
		}
	}
	return written, nil
}
