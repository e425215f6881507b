package server

import (
	"errors"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// acceptError normalizes accept-loop termination: a closed listener is a
// clean shutdown, anything else is surfaced.
func (s *Server) acceptError(err error) error {
	if errors.Is(err, net.ErrClosed) || s.ctx.Err() != nil {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"function": "acceptError",
		"error":    err.Error(),
	}).Error("Accept failed")
	return err
}

// serveSequential executes the handler inline; only one connection is in
// flight at a time.
func (s *Server) serveSequential(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return s.acceptError(err)
		}
		s.handleConn(conn)
	}
}

// servePool feeds accepted connections to a fixed pool of workers. The
// channel is unbuffered on purpose: when every worker is busy the accept
// loop blocks, so further connections queue at the OS listen backlog
// rather than in process memory.
func (s *Server) servePool(l net.Listener) error {
	conns := make(chan net.Conn)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.PoolSize; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for conn := range conns {
				logrus.WithFields(logrus.Fields{
					"function": "servePool",
					"worker":   worker,
					"remote":   conn.RemoteAddr().String(),
				}).Debug("Connection dispatched to worker")
				s.handleConn(conn)
			}
		}(i)
	}

	var acceptErr error
loop:
	for {
		conn, err := l.Accept()
		if err != nil {
			acceptErr = s.acceptError(err)
			break
		}
		select {
		case conns <- conn:
		case <-s.ctx.Done():
			conn.Close()
			break loop
		}
	}

	close(conns)
	wg.Wait()
	return acceptErr
}

// serveIsolated gives each worker its own accept call on the shared
// listening socket. Live connections never cross a worker boundary, so
// no descriptor hand-off is needed.
func (s *Server) serveIsolated(l net.Listener) error {
	var wg sync.WaitGroup
	errs := make([]error, s.cfg.PoolSize)

	for i := 0; i < s.cfg.PoolSize; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				conn, err := l.Accept()
				if err != nil {
					errs[worker] = s.acceptError(err)
					return
				}
				logrus.WithFields(logrus.Fields{
					"function": "serveIsolated",
					"worker":   worker,
					"remote":   conn.RemoteAddr().String(),
				}).Debug("Connection accepted by worker")
				s.handleConn(conn)
			}
		}(i)
	}

	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
