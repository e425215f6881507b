// Package client implements the request driver for the file transfer
// protocol: it opens a connection, sends a framed request with optional
// payload, and reassembles the framed response. Upload and Download
// compose the wire exchange with local filesystem access.
package client

import (
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/fileserve/protocol"
)

// Operation names accepted by Run.
const (
	OperationUpload   = "upload"
	OperationDownload = "download"
)

// Config holds client settings. All fields are optional.
type Config struct {
	// DialTimeout bounds connection establishment. Zero means no limit.
	DialTimeout time.Duration

	// DownloadDir is where downloaded files are saved. Defaults to the
	// current directory.
	DownloadDir string
}

// Client issues file transfer requests against one server address. Each
// operation uses its own connection; the protocol carries exactly one
// request/response pair per connection.
type Client struct {
	addr string
	cfg  Config
}

// New creates a client for the given server address ("host:port").
func New(addr string, cfg Config) *Client {
	return &Client{addr: addr, cfg: cfg}
}

// TransferResult summarizes one operation for reporting consumers.
type TransferResult struct {
	Success bool
	Elapsed time.Duration
	Bytes   uint64
}

func (c *Client) dial() (net.Conn, error) {
	if c.cfg.DialTimeout > 0 {
		return net.DialTimeout("tcp", c.addr, c.cfg.DialTimeout)
	}
	return net.Dial("tcp", c.addr)
}

// SendCommand performs one framed exchange: request header, optional
// payload, response header, and, when the response announces a filesize,
// the response payload. The returned byte slice is the collected
// payload, nil for payload-less responses.
func (c *Client) SendCommand(command string, payload []byte) (*protocol.Response, []byte, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, nil, &protocol.TransferError{Op: "dial", Err: err}
	}
	defer conn.Close()

	if err := protocol.WriteHeader(conn, command); err != nil {
		return nil, nil, err
	}
	if len(payload) > 0 {
		if err := protocol.WritePayload(conn, payload); err != nil {
			return nil, nil, err
		}
	}

	headerText, leftover, err := protocol.ReadHeader(conn)
	if err != nil {
		return nil, nil, err
	}
	resp, err := protocol.DecodeResponse(headerText)
	if err != nil {
		return nil, nil, err
	}

	info, ok := resp.FileInfo()
	if !resp.OK() || !ok {
		return resp, nil, nil
	}

	var data bytes.Buffer
	if _, err := protocol.CopyPayload(&data, conn, leftover, info.Filesize); err != nil {
		return resp, data.Bytes(), err
	}
	return resp, data.Bytes(), nil
}

// Upload sends the local file at path to the server under its base name.
// Local I/O errors and protocol errors are surfaced with distinct
// operation context.
func (c *Client) Upload(path string) (*protocol.Response, error) {
	name := filepath.Base(path)
	if err := protocol.ValidateFilename(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &protocol.TransferError{Op: "read local file", File: path, Err: err}
	}

	req := protocol.Request{Command: protocol.CommandUpload, Filename: name, Size: uint64(len(data))}
	resp, _, err := c.SendCommand(req.Encode(), data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Upload",
			"filename": name,
			"error":    err.Error(),
		}).Error("Upload failed")
		return resp, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Upload",
		"filename": name,
		"size":     len(data),
		"status":   resp.Status,
	}).Info("Upload finished")
	return resp, nil
}

// Download fetches the named file and saves it under DownloadDir as
// "download_<name>". It returns the response and the saved path; on a
// server-side error the response carries the message and the path is
// empty.
func (c *Client) Download(name string) (*protocol.Response, string, error) {
	req := protocol.Request{Command: protocol.CommandGet, Filename: name, Size: 0}
	resp, fileData, err := c.SendCommand(req.Encode(), nil)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Download",
			"filename": name,
			"error":    err.Error(),
		}).Error("Download failed")
		return resp, "", err
	}
	if !resp.OK() {
		logrus.WithFields(logrus.Fields{
			"function": "Download",
			"filename": name,
			"message":  resp.Message(),
		}).Warn("Server rejected download")
		return resp, "", nil
	}

	info, ok := resp.FileInfo()
	if !ok {
		return resp, "", &protocol.TransferError{
			Op:   "download",
			File: name,
			Err:  errors.New("missing filename or filesize in response data"),
		}
	}

	dir := c.cfg.DownloadDir
	if dir == "" {
		dir = "."
	}
	savePath := filepath.Join(dir, "download_"+info.Filename)
	if err := os.WriteFile(savePath, fileData, 0o644); err != nil {
		return resp, "", &protocol.TransferError{Op: "write local file", File: savePath, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Download",
		"filename": info.Filename,
		"size":     info.Filesize,
		"path":     savePath,
	}).Info("Download finished")
	return resp, savePath, nil
}

// Run executes one named operation and reports it as a TransferResult.
// Failures never propagate as errors; the result's Success field is the
// whole story, which is what the stress harness consumes.
func (c *Client) Run(operation, fileName string) TransferResult {
	start := time.Now()
	var (
		success   bool
		byteCount uint64
	)

	switch operation {
	case OperationUpload:
		resp, err := c.Upload(fileName)
		if err == nil && resp != nil && resp.OK() {
			success = true
			if info, statErr := os.Stat(fileName); statErr == nil {
				byteCount = uint64(info.Size())
			}
		}
	case OperationDownload:
		resp, path, err := c.Download(fileName)
		if err == nil && resp != nil && resp.OK() && path != "" {
			if info, statErr := os.Stat(path); statErr == nil {
				success = true
				byteCount = uint64(info.Size())
			}
		}
	default:
		logrus.WithFields(logrus.Fields{
			"function":  "Run",
			"operation": operation,
		}).Error("Unknown operation")
	}

	return TransferResult{Success: success, Elapsed: time.Since(start), Bytes: byteCount}
}
