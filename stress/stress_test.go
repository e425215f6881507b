package stress

import (
	"bytes"
	"encoding/csv"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/fileserve/client"
	"github.com/opd-ai/fileserve/server"
	"github.com/opd-ai/fileserve/storage"
)

func startServer(t *testing.T, poolSize int) string {
	t.Helper()

	store, err := storage.NewDirStore(filepath.Join(t.TempDir(), "storage"))
	require.NoError(t, err)

	srv, err := server.New(server.Config{Policy: server.PolicyPool, PoolSize: poolSize, Store: store})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go srv.Serve(l)
	t.Cleanup(func() { srv.Close() })

	return l.Addr().String()
}

func TestRunAggregatesWorkers(t *testing.T) {
	addr := startServer(t, 3)

	workDir := t.TempDir()
	content := bytes.Repeat([]byte("stress"), 8192)
	filePath := filepath.Join(workDir, "driven.bin")
	require.NoError(t, os.WriteFile(filePath, content, 0o644))

	runner := NewRunner(Config{
		Addr:          addr,
		Operation:     client.OperationUpload,
		FilePath:      filePath,
		PoolSize:      3,
		ServerWorkers: 3,
		CaseNumber:    1,
	})

	summary := runner.Run()
	assert.Equal(t, 3, summary.SuccessCount)
	assert.Zero(t, summary.FailCount)
	assert.Equal(t, uint64(3*len(content)), summary.TotalBytes)
	assert.Equal(t, uint64(len(content)), summary.FileVolume)
	assert.Greater(t, summary.AvgTimePerClient, 0.0)
	assert.Greater(t, summary.ThroughputPerClient, 0.0)
}

func TestRunCountsFailures(t *testing.T) {
	// Nothing listening on the reserved port, so every worker fails.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	workDir := t.TempDir()
	filePath := filepath.Join(workDir, "driven.bin")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	runner := NewRunner(Config{
		Addr:        addr,
		Operation:   client.OperationUpload,
		FilePath:    filePath,
		PoolSize:    2,
		DialTimeout: time.Second,
	})

	summary := runner.Run()
	assert.Zero(t, summary.SuccessCount)
	assert.Equal(t, 2, summary.FailCount)
	assert.Zero(t, summary.TotalBytes)
}

func TestWriteReportAppendsRows(t *testing.T) {
	workDir := t.TempDir()
	csvPath := filepath.Join(workDir, "report.csv")

	runner := NewRunner(Config{
		Operation:     client.OperationUpload,
		PoolSize:      2,
		ServerWorkers: 4,
		CaseNumber:    7,
		OutputCSV:     csvPath,
	})

	summary := &Summary{
		SuccessCount:        2,
		TotalBytes:          4096,
		TotalWorkerTime:     2 * time.Second,
		AvgTimePerClient:    1.0,
		ThroughputPerClient: 2048.0,
		FileVolume:          2048,
	}

	require.NoError(t, runner.WriteReport(summary))
	require.NoError(t, runner.WriteReport(summary))

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	// Header once, then one row per WriteReport call.
	require.Len(t, records, 3)
	assert.Equal(t, reportHeader, records[0])

	row := records[1]
	assert.Equal(t, "7", row[0])
	assert.Equal(t, client.OperationUpload, row[1])
	assert.Equal(t, "2", row[3])
	assert.Equal(t, "4", row[4])
	assert.Equal(t, "1.000", row[5])
	assert.Equal(t, "2048.000", row[6])
	assert.Equal(t, "2 success, 0 failed", row[7])
}

func TestVolumeString(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0MB"},
		{512 * 1024, "1MB"},
		{1024 * 1024, "1MB"},
		{10 * 1024 * 1024, "10MB"},
		{100*1024*1024 + 600*1024, "101MB"},
	}

	for _, tt := range tests {
		s := &Summary{FileVolume: tt.bytes}
		if got := s.VolumeString(); got != tt.want {
			t.Errorf("VolumeString(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestEndToEndReport(t *testing.T) {
	addr := startServer(t, 2)

	workDir := t.TempDir()
	filePath := filepath.Join(workDir, "e2e.bin")
	require.NoError(t, os.WriteFile(filePath, bytes.Repeat([]byte{0xAB}, 1024), 0o644))
	csvPath := filepath.Join(workDir, "report.csv")

	runner := NewRunner(Config{
		Addr:          addr,
		Operation:     client.OperationUpload,
		FilePath:      filePath,
		PoolSize:      2,
		ServerWorkers: 2,
		CaseNumber:    1,
		OutputCSV:     csvPath,
	})

	summary := runner.Run()
	require.NoError(t, runner.WriteReport(summary))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2 success, 0 failed")
}
