package server

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{"", PolicySequential, false},
		{"sequential", PolicySequential, false},
		{"single", PolicySequential, false},
		{"pool", PolicyPool, false},
		{"POOL", PolicyPool, false},
		{"thread", PolicyPool, false},
		{"shared", PolicyPool, false},
		{"isolated", PolicyIsolated, false},
		{"process", PolicyIsolated, false},
		{"forking", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q) = %q, want error", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePolicy(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() accepted a nil store")
	}
}

// uploadMany drives n concurrent uploads with distinct filenames and
// verifies every file lands on disk byte for byte.
func uploadMany(t *testing.T, addr, storeDir string, n int) {
	t.Helper()

	contents := make([][]byte, n)
	for i := range contents {
		contents[i] = bytes.Repeat([]byte{byte('a' + i)}, 64*1024+i)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("worker%d.bin", i)
			resp, _ := exchange(t, addr, fmt.Sprintf("UPLOAD %s %d", name, len(contents[i])), contents[i])
			if !resp.OK() {
				t.Errorf("upload %s failed: %+v", name, resp)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("worker%d.bin", i)
		if got := storedContent(t, storeDir, name); !bytes.Equal(got, contents[i]) {
			t.Errorf("stored content of %s differs", name)
		}
	}
}

func TestPolicyEquivalence(t *testing.T) {
	// Disjoint filenames must round-trip identically no matter which
	// dispatch policy carries them.
	tests := []struct {
		name     string
		policy   Policy
		poolSize int
	}{
		{"sequential", PolicySequential, 1},
		{"pool", PolicyPool, 4},
		{"isolated", PolicyIsolated, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, storeDir := startServer(t, tt.policy, tt.poolSize)
			uploadMany(t, addr, storeDir, 4)
		})
	}
}

func TestPoolServesConcurrently(t *testing.T) {
	addr, storeDir := startServer(t, PolicyPool, 2)

	// Hold one connection open mid-request; a second worker must still
	// serve other clients.
	slow, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer slow.Close()
	if _, err := slow.Write([]byte("UPLOAD stalled.bin ")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		content := []byte("served while another connection stalls")
		resp, _ := exchange(t, addr, fmt.Sprintf("UPLOAD fast.bin %d", len(content)), content)
		if !resp.OK() {
			t.Errorf("upload failed: %+v", resp)
		}
		if got := storedContent(t, storeDir, "fast.bin"); !bytes.Equal(got, content) {
			t.Error("stored content differs")
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("second connection starved while first worker was busy")
	}
}

func TestCloseStopsAcceptLoop(t *testing.T) {
	for _, policy := range []Policy{PolicySequential, PolicyPool, PolicyIsolated} {
		t.Run(string(policy), func(t *testing.T) {
			store := newTestStore(t)
			srv, err := New(Config{Policy: policy, PoolSize: 2, Store: store})
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}
			l, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatalf("Listen() failed: %v", err)
			}

			serveErr := make(chan error, 1)
			go func() { serveErr <- srv.Serve(l) }()

			// Let the accept loop start before closing.
			time.Sleep(50 * time.Millisecond)
			if err := srv.Close(); err != nil {
				t.Fatalf("Close() failed: %v", err)
			}

			select {
			case err := <-serveErr:
				if err != nil {
					t.Errorf("Serve() returned %v after Close", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Serve() did not return after Close")
			}

			if err := srv.Close(); err != nil {
				t.Errorf("second Close() returned %v", err)
			}
		})
	}
}
