package server

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/fileserve/limits"
	"github.com/opd-ai/fileserve/protocol"
)

// handleConn processes one connection's request/response pair to
// completion and closes the connection. An internal fault is caught
// here, converted to a best-effort ERROR response, and never reaches
// the dispatcher.
func (s *Server) handleConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	log := logrus.WithFields(logrus.Fields{
		"function":    "handleConn",
		"remote_addr": remote,
	})
	log.Info("Connection accepted")

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("Internal fault while handling connection")
			s.writeResponse(conn, protocol.NewErrorResponse(fmt.Sprint(r)))
		}
		conn.Close()
		log.Info("Connection closed")
	}()

	header, leftover, err := protocol.ReadHeader(conn)
	if err != nil {
		if errors.Is(err, protocol.ErrTruncatedHeader) {
			log.Warn("Client disconnected before sending full header")
			return
		}
		log.WithField("error", err.Error()).Warn("Failed to read request header")
		s.writeResponse(conn, protocol.NewErrorResponse(protocol.ResponseMessage(err)))
		return
	}

	req, err := protocol.ParseRequest(header)
	if err != nil {
		s.respondError(conn, err)
		return
	}

	log.WithFields(logrus.Fields{
		"command":  req.Command,
		"filename": req.Filename,
		"size":     req.Size,
	}).Debug("Request parsed")

	switch req.Command {
	case protocol.CommandUpload:
		s.handleUpload(conn, req, leftover)
	case protocol.CommandGet:
		s.handleGet(conn, req)
	default:
		s.respondError(conn, protocol.ErrUnknownCommand)
	}
}

// handleUpload receives exactly the declared number of payload bytes
// into storage, consuming the leftover bytes read past the header first.
func (s *Server) handleUpload(conn net.Conn, req *protocol.Request, leftover []byte) {
	log := logrus.WithFields(logrus.Fields{
		"function":      "handleUpload",
		"filename":      req.Filename,
		"declared_size": req.Size,
	})

	// More data already arrived than was declared. Fail before touching
	// the destination file.
	if uint64(len(leftover)) > req.Size {
		log.WithField("leftover", len(leftover)).Warn("Declared size smaller than received data")
		s.respondError(conn, protocol.ErrSizeMismatch)
		return
	}

	dst, err := s.cfg.Store.Create(req.Filename)
	if err != nil {
		log.WithField("error", err.Error()).Error("Failed to open destination file")
		s.writeResponse(conn, protocol.NewErrorResponse(err.Error()))
		return
	}

	written, copyErr := protocol.CopyPayload(dst, conn, leftover, req.Size)
	closeErr := dst.Close()

	if copyErr != nil {
		// The partially written file stays on disk; an error response
		// means storage state is indeterminate for this filename.
		log.WithFields(logrus.Fields{
			"written": written,
			"error":   copyErr.Error(),
		}).Warn("Upload did not complete")
		s.respondError(conn, copyErr)
		return
	}
	if closeErr != nil {
		log.WithField("error", closeErr.Error()).Error("Failed to close destination file")
		s.writeResponse(conn, protocol.NewErrorResponse(closeErr.Error()))
		return
	}

	log.WithField("bytes", written).Info("File stored")
	s.writeResponse(conn, protocol.NewOKResponse(fmt.Sprintf("Uploaded %s", req.Filename)))
}

// handleGet announces the file's current size, then streams its content.
// The size is not re-checked once streaming starts, so a concurrent
// upload of the same name can truncate or mix the transfer.
func (s *Server) handleGet(conn net.Conn, req *protocol.Request) {
	log := logrus.WithFields(logrus.Fields{
		"function": "handleGet",
		"filename": req.Filename,
	})

	if !s.cfg.Store.Exists(req.Filename) {
		log.Debug("Requested file not found")
		s.respondError(conn, protocol.ErrFileNotFound)
		return
	}

	size, err := s.cfg.Store.Size(req.Filename)
	if err != nil {
		s.writeResponse(conn, protocol.NewErrorResponse(err.Error()))
		return
	}
	src, err := s.cfg.Store.Open(req.Filename)
	if err != nil {
		s.writeResponse(conn, protocol.NewErrorResponse(err.Error()))
		return
	}
	defer src.Close()

	resp := protocol.NewOKResponse(&protocol.FileInfo{Filename: req.Filename, Filesize: size})
	if err := s.writeResponse(conn, resp); err != nil {
		return
	}

	buf := make([]byte, limits.ChunkSize)
	sent, err := io.CopyBuffer(conn, io.LimitReader(src, int64(size)), buf)
	if err != nil {
		log.WithFields(logrus.Fields{
			"sent":  sent,
			"error": err.Error(),
		}).Warn("Failed to stream file content")
		return
	}

	log.WithField("bytes", sent).Info("File sent")
}

func (s *Server) respondError(conn net.Conn, err error) {
	logrus.WithFields(logrus.Fields{
		"function": "respondError",
		"error":    err.Error(),
	}).Debug("Sending error response")
	s.writeResponse(conn, protocol.NewErrorResponse(protocol.ResponseMessage(err)))
}

// writeResponse encodes and writes a response header frame. Failures are
// logged but otherwise ignored: the connection is single-attempt and
// about to close either way.
func (s *Server) writeResponse(conn net.Conn, resp *protocol.Response) error {
	text, err := resp.Encode()
	if err != nil {
		return err
	}
	if err := protocol.WriteHeader(conn, text); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "writeResponse",
			"error":    err.Error(),
		}).Debug("Failed to write response header")
		return err
	}
	return nil
}
