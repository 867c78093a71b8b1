// Command fiadoctl inspects and edits the record store from a terminal.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"fiado/internal/cli"
	"fiado/internal/config"
	applog "fiado/internal/log"
	"fiado/internal/services"
	"fiado/internal/store"
)

var app struct {
	Summary  summaryCmd  `cmd:"" help:"Print the financial summary."`
	Records  recordsCmd  `cmd:"" help:"List stored records."`
	Add      addCmd      `cmd:"" help:"Append a record."`
	Classify classifyCmd `cmd:"" help:"Classify a message without storing it."`
	Import   importCmd   `cmd:"" help:"Append records from a JSON file, skipping IDs already stored."`
}

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	kctx := kong.Parse(&app,
		kong.Name("fiadoctl"),
		kong.Description("Bookkeeping records admin tool."),
		kong.UsageOnError(),
	)

	logger := cli.SetupLogger(cfg, applog.ComponentCLI, os.Stderr)
	ctx, stop := cli.SignalContext()
	defer stop()

	rc := &runContext{
		ctx:    ctx,
		out:    os.Stdout,
		logger: logger,
		loc:    cfg.Location(),
		openStore: func(ctx context.Context) (store.Store, func() error, error) {
			if err := cfg.ValidateStore(); err != nil {
				return nil, nil, err
			}
			res, err := cli.OpenStore(ctx, cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			return res.Store, res.Cleanup, nil
		},
		newClassifier: func(ctx context.Context) (services.Classifier, error) {
			if err := cfg.ValidateClassifier(); err != nil {
				return nil, err
			}
			c, err := cli.NewClassifier(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}

	kctx.FatalIfErrorf(kctx.Run(rc))
}
