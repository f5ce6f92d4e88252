package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/amaracantik180418/code-wiz-2000/cmd/flags"
	"github.com/amaracantik180418/code-wiz-2000/httpserver"
	"github.com/amaracantik180418/code-wiz-2000/interfaces"
	"github.com/amaracantik180418/code-wiz-2000/metrics"
	"github.com/amaracantik180418/code-wiz-2000/registry"
	"github.com/amaracantik180418/code-wiz-2000/storage"
)

var serverFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for the registry API",
	},
	&cli.StringFlag{
		Name:     "treasury",
		Required: true,
		Usage:    "treasury address receiving all registration fees. 40-char hex string",
	},
	&cli.StringFlag{
		Name:     "controller",
		Required: true,
		Usage:    "controller address authorized to seal phases. 40-char hex string",
	},
	&cli.Uint64Flag{
		Name:  "phase-duration-seconds",
		Value: 259200,
		Usage: "minimum seconds a phase must stay open before it may be sealed",
	},
	&cli.StringFlag{
		Name:  "registration-fee",
		Value: "1000000000000000",
		Usage: "exact fee per commitment, decimal, in the smallest native unit",
	},
	&cli.StringSliceFlag{
		Name:  "snapshot-store",
		Usage: "snapshot store location URI (file://, s3://, ipfs://, vault://); repeatable for redundancy",
	},
	&cli.BoolFlag{
		Name:  "restore",
		Value: false,
		Usage: "restore state from the latest snapshot on startup",
	},
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve the phased commitment registry API",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			treasury, err := interfaces.NewAddressFromHex(cCtx.String("treasury"))
			if err != nil {
				logger.Error("Invalid treasury address", "err", err)
				return err
			}

			controller, err := interfaces.NewAddressFromHex(cCtx.String("controller"))
			if err != nil {
				logger.Error("Invalid controller address", "err", err)
				return err
			}

			fee, ok := new(big.Int).SetString(cCtx.String("registration-fee"), 10)
			if !ok || fee.Sign() < 0 {
				logger.Error("Invalid registration fee", "value", cCtx.String("registration-fee"))
				return errors.New("registration-fee must be a non-negative decimal integer")
			}

			config := interfaces.RegistryConfig{
				Treasury:        treasury,
				Controller:      controller,
				PhaseDuration:   time.Duration(cCtx.Uint64("phase-duration-seconds")) * time.Second,
				RegistrationFee: fee,
			}

			sink := registry.NewLedgerSink(logger)
			engine, err := registry.NewPhasedRegistry(config, sink, logger)
			if err != nil {
				logger.Error("Failed to create registry engine", "err", err)
				return err
			}

			var store interfaces.SnapshotStore
			if uris := cCtx.StringSlice("snapshot-store"); len(uris) > 0 {
				storeFactory := storage.NewStoreFactory(logger)
				store, err = storeFactory.MultiStoreFor(uris)
				if err != nil {
					logger.Error("Failed to create snapshot store", "err", err)
					return err
				}
				logger.Info("Snapshot persistence enabled", "locationURI", store.LocationURI())
			}

			if cCtx.Bool("restore") {
				if store == nil {
					return errors.New("restore requires at least one snapshot-store")
				}

				data, err := store.Fetch(context.Background(), interfaces.SnapshotLatest)
				switch {
				case errors.Is(err, interfaces.ErrSnapshotNotFound):
					logger.Info("No snapshot found, starting fresh")
				case err != nil:
					logger.Error("Failed to fetch latest snapshot", "err", err)
					return err
				default:
					if err := engine.RestoreSnapshot(data); err != nil {
						logger.Error("Failed to restore snapshot", "err", err)
						return fmt.Errorf("could not restore snapshot: %w", err)
					}
					index, _ := engine.CurrentPhaseIndex()
					logger.Info("State restored from snapshot", "currentPhase", index)
				}
			}

			registryMetrics := metrics.NewRegistryMetrics(metrics.Namespace)
			handler := httpserver.NewHandler(engine, store, registryMetrics, logger)

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
