// translator consumes a native Telos block stream over a state-history
// WebSocket subscription and emits EVM-compatible blocks, persisting its
// chain-tracking state so a restart resumes where it left off.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/telosnetwork/telos-evm-translator-go/internal/config"
	"github.com/telosnetwork/telos-evm-translator-go/internal/pipeline"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to the TOML configuration file",
		Value: "config.toml",
	}
	cleanFlag = &cli.BoolFlag{
		Name:  "clean",
		Usage: "wipe persisted chain state before starting",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
)

func main() {
	app := &cli.App{
		Name:   "translator",
		Usage:  "translate native Telos blocks into EVM-compatible ones",
		Flags:  []cli.Flag{configFlag, cleanFlag, verbosityFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Crit("translator failed", "err", err)
	}
}

func run(c *cli.Context) error {
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(c.Int(verbosityFlag.Name)), false)
	log.SetDefault(log.NewLogger(handler))

	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return err
	}

	if c.Bool(cleanFlag.Name) {
		log.Info("wiping persisted state", "data_path", cfg.DataPath)
		if err := os.RemoveAll(cfg.DataPath); err != nil {
			return fmt.Errorf("wipe %s: %w", cfg.DataPath, err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return pipeline.Launch(ctx, cfg, nil)
}
