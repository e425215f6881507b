package protocol

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opd-ai/fileserve/limits"
)

// Command identifies the requested operation.
type Command string

const (
	// CommandUpload stores the declared payload under the given filename.
	CommandUpload Command = "UPLOAD"
	// CommandGet retrieves the named file. The size token is sent as 0
	// and ignored by the server.
	CommandGet Command = "GET"
)

// filenamePattern restricts filenames to word characters, hyphen and dot.
// This rejects path traversal and injection through the name token.
var filenamePattern = regexp.MustCompile(`^[\w\-.]+$`)

// Request is the parsed form of a connection's request line. It is parsed
// once per connection and immutable afterwards.
type Request struct {
	Command  Command
	Filename string
	Size     uint64
}

// ValidateFilename checks a filename against the protocol's restricted
// charset and length limit. Returns ErrInvalidFilename for anything that
// could escape the flat storage namespace.
func ValidateFilename(name string) error {
	if err := limits.ValidateFileNameLength(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilename, err)
	}
	if !filenamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	// The charset already excludes separators; ".." is rejected on top of
	// it so the name can never reference the parent directory.
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}

// ParseRequest parses a request header line into a Request. The command
// token is case-insensitive. Validation order follows the wire protocol:
// token count first, then filename charset, then size.
func ParseRequest(header string) (*Request, error) {
	fields := strings.Fields(strings.TrimSpace(header))
	if len(fields) < 3 {
		return nil, ErrMalformedRequest
	}

	name := fields[1]
	if err := ValidateFilename(name); err != nil {
		return nil, err
	}

	size, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSize, fields[2])
	}

	return &Request{
		Command:  Command(strings.ToUpper(fields[0])),
		Filename: name,
		Size:     size,
	}, nil
}

// Encode renders the request as a header line without the delimiter.
func (r *Request) Encode() string {
	return fmt.Sprintf("%s %s %d", r.Command, r.Filename, r.Size)
}
