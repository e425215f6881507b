// Package stress drives many concurrent client operations against one
// server and aggregates the per-worker transfer results into a row of a
// CSV report.
package stress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/fileserve/client"
)

// Config describes one stress run. Every worker performs the same
// operation against the same file.
type Config struct {
	Addr          string
	Operation     string
	FilePath      string
	PoolSize      int
	ServerWorkers int
	CaseNumber    int
	OutputCSV     string
	DownloadDir   string
	DialTimeout   time.Duration
}

// Summary aggregates the results of all workers in one run.
type Summary struct {
	SuccessCount        int
	FailCount           int
	TotalBytes          uint64
	TotalWorkerTime     time.Duration
	AvgTimePerClient    float64 // seconds
	ThroughputPerClient float64 // bytes per second of worker time
	FileVolume          uint64  // size of the driven file
}

// Runner executes a configured stress run.
type Runner struct {
	cfg Config
}

// NewRunner creates a Runner. Pool size defaults to 1.
func NewRunner(cfg Config) *Runner {
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 1
	}
	if cfg.ServerWorkers < 1 {
		cfg.ServerWorkers = 1
	}
	return &Runner{cfg: cfg}
}

// Run launches PoolSize concurrent client workers and aggregates their
// results. Workers are goroutines; each uses its own connection per
// operation, so pool size is also the peak connection concurrency.
func (r *Runner) Run() *Summary {
	logrus.WithFields(logrus.Fields{
		"function":  "Run",
		"operation": r.cfg.Operation,
		"pool_size": r.cfg.PoolSize,
		"server":    r.cfg.Addr,
	}).Info("Starting stress run")

	results := make([]client.TransferResult, r.cfg.PoolSize)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c := client.New(r.cfg.Addr, client.Config{
				DialTimeout: r.cfg.DialTimeout,
				DownloadDir: r.cfg.DownloadDir,
			})
			results[worker] = c.Run(r.cfg.Operation, r.cfg.FilePath)
		}(i)
	}
	wg.Wait()

	return r.summarize(results)
}

func (r *Runner) summarize(results []client.TransferResult) *Summary {
	s := &Summary{}
	for _, res := range results {
		if res.Success {
			s.SuccessCount++
		} else {
			s.FailCount++
		}
		s.TotalBytes += res.Bytes
		s.TotalWorkerTime += res.Elapsed
	}

	if n := len(results); n > 0 {
		s.AvgTimePerClient = s.TotalWorkerTime.Seconds() / float64(n)
	}
	if s.TotalWorkerTime > 0 {
		s.ThroughputPerClient = float64(s.TotalBytes) / s.TotalWorkerTime.Seconds()
	}
	if info, err := os.Stat(r.cfg.FilePath); err == nil {
		s.FileVolume = uint64(info.Size())
	}

	logrus.WithFields(logrus.Fields{
		"function":   "summarize",
		"success":    s.SuccessCount,
		"failed":     s.FailCount,
		"bytes":      s.TotalBytes,
		"total_time": s.TotalWorkerTime,
	}).Info("Stress run finished")
	return s
}

// VolumeString renders the driven file size in whole megabytes, the unit
// used in the report table.
func (s *Summary) VolumeString() string {
	return fmt.Sprintf("%dMB", (s.FileVolume+512*1024)/(1024*1024))
}
