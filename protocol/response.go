package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the outcome field of a response.
type Status string

const (
	// StatusOK indicates the operation succeeded.
	StatusOK Status = "OK"
	// StatusError indicates the operation failed; data carries the message.
	StatusError Status = "ERROR"
)

// Response is the JSON object sent back by the server. For a successful
// GET the data field is a FileInfo object and the response header is
// followed by exactly FileInfo.Filesize payload bytes; for a successful
// UPLOAD it is a confirmation string; for errors it is a message string.
type Response struct {
	Status Status `json:"status"`
	Data   any    `json:"data"`
}

// FileInfo describes the file announced by a successful GET response.
type FileInfo struct {
	Filename string `json:"filename"`
	Filesize uint64 `json:"filesize"`
}

// NewOKResponse builds a success response with the given data value.
func NewOKResponse(data any) *Response {
	return &Response{Status: StatusOK, Data: data}
}

// NewErrorResponse builds an error response carrying a message string.
func NewErrorResponse(message string) *Response {
	return &Response{Status: StatusError, Data: message}
}

// OK reports whether the response status is StatusOK.
func (r *Response) OK() bool {
	return r.Status == StatusOK
}

// Encode serializes the response as its wire JSON text, without the
// frame delimiter.
func (r *Response) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", &TransferError{Op: "encode response", Err: err}
	}
	return string(data), nil
}

// DecodeResponse parses the JSON text of a response header.
func DecodeResponse(text string) (*Response, error) {
	var resp Response
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &resp); err != nil {
		return nil, &TransferError{Op: "decode response", Err: err}
	}
	return &resp, nil
}

// FileInfo extracts the announced file metadata from a decoded response.
// The second return value is false when the data field is not an object
// with a filesize, which is how callers distinguish payload-bearing
// responses from plain confirmations.
func (r *Response) FileInfo() (*FileInfo, bool) {
	obj, ok := r.Data.(map[string]any)
	if !ok {
		return nil, false
	}
	sizeVal, ok := obj["filesize"]
	if !ok {
		return nil, false
	}
	size, ok := sizeVal.(float64)
	if !ok || size < 0 {
		return nil, false
	}
	name, _ := obj["filename"].(string)
	return &FileInfo{Filename: name, Filesize: uint64(size)}, true
}

// Message returns the data field as a string when it is one. Used for
// error and confirmation responses.
func (r *Response) Message() string {
	if s, ok := r.Data.(string); ok {
		return s
	}
	return fmt.Sprint(r.Data)
}
