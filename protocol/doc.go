// Package protocol implements the wire protocol shared by the file
// transfer client and server.
//
// Every connection carries exactly one request/response exchange. Both
// directions use the same frame shape: a UTF-8 text header terminated by
// the 4-byte delimiter "\r\n\r\n", optionally followed by raw binary
// payload bytes. The payload length is always declared in the header, so
// payload bytes are opaque and may contain the delimiter sequence.
//
// Requests are whitespace-separated token lines:
//
//	UPLOAD <filename> <size>
//	GET <filename> 0
//
// Responses are a single JSON object:
//
//	{"status": "OK"|"ERROR", "data": <string|object>}
//
// A successful GET response carries data = {"filename", "filesize"} and
// is followed by exactly filesize payload bytes.
package protocol
