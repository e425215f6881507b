// Package server implements the file transfer server: an accept loop
// with three interchangeable dispatch policies and the transfer engine
// that executes UPLOAD and GET against a storage directory.
//
// Handler logic is identical across policies and is not internally
// concurrent: a single handler processes one connection's
// request/response pair to completion, blocking on socket and file I/O
// throughout. There are no read or write deadlines; a stalled client
// occupies its execution unit indefinitely.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/fileserve/storage"
)

// Policy selects how accepted connections are mapped to execution units.
type Policy string

const (
	// PolicySequential runs the handler inline in the accept loop; one
	// connection is in flight at a time.
	PolicySequential Policy = "sequential"

	// PolicyPool submits accepted connections to a fixed-size pool of
	// workers sharing process memory.
	PolicyPool Policy = "pool"

	// PolicyIsolated runs a fixed-size pool of workers that share
	// nothing but the listening socket: each worker owns its own accept
	// call, so no live connection is ever handed across workers.
	PolicyIsolated Policy = "isolated"
)

// ParsePolicy maps a configuration string to a Policy. The legacy mode
// names "single", "thread" and "process" are accepted as aliases.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "sequential", "single":
		return PolicySequential, nil
	case "pool", "shared", "thread":
		return PolicyPool, nil
	case "isolated", "process":
		return PolicyIsolated, nil
	default:
		return "", fmt.Errorf("unknown dispatch policy %q", s)
	}
}

// Config holds the fixed startup configuration of a Server. Policy and
// pool size are not runtime-mutable.
type Config struct {
	ListenAddress string
	Policy        Policy
	PoolSize      int
	Store         storage.Store
}

func (cfg Config) withDefaults() Config {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":10001"
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicySequential
	}
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 1
	}
	return cfg
}

// Server accepts file transfer connections and dispatches them to
// handlers under the configured policy.
type Server struct {
	cfg Config

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Server from cfg. The storage collaborator is required;
// everything else has defaults.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: storage is required")
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{cfg: cfg, ctx: ctx, cancel: cancel}, nil
}

// ListenAndServe listens on the configured TCP address and serves until
// Close is called or the listener fails.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve runs the accept loop for the configured policy on l. It blocks
// until the listener is closed.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Serve",
		"policy":    s.cfg.Policy,
		"pool_size": s.cfg.PoolSize,
		"addr":      l.Addr().String(),
	}).Info("Server started")

	switch s.cfg.Policy {
	case PolicyPool:
		return s.servePool(l)
	case PolicyIsolated:
		return s.serveIsolated(l)
	default:
		return s.serveSequential(l)
	}
}

// Addr returns the listener address once Serve has been called. Useful
// when listening on port 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops the accept loops. In-flight handlers are not interrupted;
// the protocol has no graceful-shutdown exchange.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	l := s.listener
	s.mu.Unlock()

	s.cancel()
	if l != nil {
		return l.Close()
	}
	return nil
}
