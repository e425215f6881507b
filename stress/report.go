package stress

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// reportHeader is the column set of the stress report table.
var reportHeader = []string{
	"Case",
	"Operation",
	"Volume",
	"Client pool size",
	"Server pool size",
	"Avg time per client (s)",
	"Throughput per client (bytes/s)",
	"Client workers (success/fail)",
	"Server workers (success/fail)",
}

// WriteReport appends one summary row to the configured CSV file,
// writing the header first when the file does not exist yet.
func (r *Runner) WriteReport(s *Summary) error {
	writeHeader := true
	if _, err := os.Stat(r.cfg.OutputCSV); err == nil {
		writeHeader = false
	}

	f, err := os.OpenFile(r.cfg.OutputCSV, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open report file %q: %w", r.cfg.OutputCSV, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(reportHeader); err != nil {
			return err
		}
	}

	row := []string{
		strconv.Itoa(r.cfg.CaseNumber),
		r.cfg.Operation,
		s.VolumeString(),
		strconv.Itoa(r.cfg.PoolSize),
		strconv.Itoa(r.cfg.ServerWorkers),
		strconv.FormatFloat(s.AvgTimePerClient, 'f', 3, 64),
		strconv.FormatFloat(s.ThroughputPerClient, 'f', 3, 64),
		fmt.Sprintf("%d success, %d failed", s.SuccessCount, s.FailCount),
		fmt.Sprintf("%d workers, 0 failed", r.cfg.ServerWorkers),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "WriteReport",
		"output":   r.cfg.OutputCSV,
		"case":     r.cfg.CaseNumber,
	}).Info("Stress report row written")
	return nil
}
