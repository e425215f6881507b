// Command fileserved runs the file transfer server.
//
// The server accepts UPLOAD and GET requests over raw TCP and stores
// files in a single flat directory. The dispatch policy and worker pool
// size are fixed at startup.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/opd-ai/fileserve"
	"github.com/opd-ai/fileserve/server"
	"github.com/opd-ai/fileserve/storage"
)

func main() {
	app := &cli.App{
		Name:  "fileserved",
		Usage: "File transfer server with selectable dispatch policies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "TCP listen address",
			},
			&cli.StringFlag{
				Name:  "storage",
				Usage: "Storage directory for uploaded files",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "Dispatch policy: sequential, pool or isolated",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Worker pool size for pool and isolated policies",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path (in addition to stdout)",
			},
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithField("error", err.Error()).Fatal("Server exited with error")
	}
}

// resolveConfig merges the optional config file with command-line flags;
// flags win.
func resolveConfig(c *cli.Context) (*fileserve.Config, error) {
	cfg := fileserve.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := fileserve.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("listen") {
		cfg.Server.Listen = c.String("listen")
	}
	if c.IsSet("storage") {
		cfg.Server.StorageDir = c.String("storage")
	}
	if c.IsSet("policy") {
		cfg.Server.Policy = c.String("policy")
	}
	if c.IsSet("workers") {
		cfg.Server.PoolSize = c.Int("workers")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	return cfg, nil
}

func runServer(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	if err := fileserve.SetupLogging(cfg.Log); err != nil {
		return err
	}

	policy, err := server.ParsePolicy(cfg.Server.Policy)
	if err != nil {
		return err
	}
	store, err := storage.NewDirStore(cfg.Server.StorageDir)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddress: cfg.Server.Listen,
		Policy:        policy,
		PoolSize:      cfg.Server.PoolSize,
		Store:         store,
	})
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logrus.WithFields(logrus.Fields{
			"function": "runServer",
			"signal":   sig.String(),
		}).Info("Shutting down")
		srv.Close()
	}()

	return srv.ListenAndServe()
}
