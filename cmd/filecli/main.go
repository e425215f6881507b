// Command filecli is the client for the file transfer server: single
// uploads and downloads, plus a stress mode that drives many concurrent
// workers against one file and appends the aggregated numbers to a CSV
// report.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/opd-ai/fileserve"
	"github.com/opd-ai/fileserve/client"
	"github.com/opd-ai/fileserve/stress"
)

func main() {
	serverFlag := &cli.StringFlag{
		Name:  "server",
		Usage: "Server address (host:port)",
		Value: "127.0.0.1:10001",
	}
	logLevelFlag := &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
		Value: "info",
	}

	app := &cli.App{
		Name:  "filecli",
		Usage: "File transfer client and stress tester",
		Commands: []*cli.Command{
			{
				Name:  "upload",
				Usage: "Upload a local file to the server",
				Flags: []cli.Flag{
					serverFlag,
					logLevelFlag,
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path of the file to upload",
						Required: true,
					},
				},
				Action: runUpload,
			},
			{
				Name:  "download",
				Usage: "Download a file from the server",
				Flags: []cli.Flag{
					serverFlag,
					logLevelFlag,
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Name of the file to download",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "dest",
						Usage: "Directory to save the downloaded file in",
						Value: ".",
					},
				},
				Action: runDownload,
			},
			{
				Name:  "stress",
				Usage: "Run concurrent workers against one file and append a CSV report row",
				Flags: []cli.Flag{
					serverFlag,
					logLevelFlag,
					&cli.StringFlag{
						Name:     "file",
						Usage:    "File to drive through every worker",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "operation",
						Usage: "Operation performed by each worker (upload or download)",
						Value: client.OperationUpload,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent client workers",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "server-workers",
						Usage: "Server worker pool size (recorded in the report)",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "case",
						Usage: "Test case number for the report",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "CSV report file",
						Value: "stress_test_report.csv",
					},
					&cli.StringFlag{
						Name:  "dest",
						Usage: "Directory for files downloaded by workers",
						Value: ".",
					},
				},
				Action: runStress,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithField("error", err.Error()).Fatal("Command failed")
	}
}

func setupLogging(c *cli.Context) error {
	return fileserve.SetupLogging(fileserve.LogConfig{Level: c.String("log-level")})
}

func runUpload(c *cli.Context) error {
	if err := setupLogging(c); err != nil {
		return err
	}

	cl := client.New(c.String("server"), client.Config{})
	resp, err := cl.Upload(c.String("file"))
	if err != nil {
		return err
	}

	fmt.Printf("status=%s data=%s\n", resp.Status, resp.Message())
	return nil
}

func runDownload(c *cli.Context) error {
	if err := setupLogging(c); err != nil {
		return err
	}

	cl := client.New(c.String("server"), client.Config{DownloadDir: c.String("dest")})
	resp, path, err := cl.Download(c.String("file"))
	if err != nil {
		return err
	}
	if !resp.OK() {
		fmt.Printf("status=%s data=%s\n", resp.Status, resp.Message())
		return nil
	}

	fmt.Printf("status=%s download_path=%s\n", resp.Status, path)
	return nil
}

func runStress(c *cli.Context) error {
	if err := setupLogging(c); err != nil {
		return err
	}

	runner := stress.NewRunner(stress.Config{
		Addr:          c.String("server"),
		Operation:     c.String("operation"),
		FilePath:      c.String("file"),
		PoolSize:      c.Int("pool-size"),
		ServerWorkers: c.Int("server-workers"),
		CaseNumber:    c.Int("case"),
		OutputCSV:     c.String("output"),
		DownloadDir:   c.String("dest"),
	})

	summary := runner.Run()
	if err := runner.WriteReport(summary); err != nil {
		return err
	}

	fmt.Printf("case=%d operation=%s success=%d failed=%d bytes=%d avg_time=%.3fs\n",
		c.Int("case"), c.String("operation"),
		summary.SuccessCount, summary.FailCount, summary.TotalBytes, summary.AvgTimePerClient)
	return nil
}
