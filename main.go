package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/cuemap/cuemap/internal/cmd/serve"
	snapshotcmd "github.com/cuemap/cuemap/internal/cmd/snapshot"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "cuemap",
		Usage: "In-memory temporal-associative memory store",
		Commands: []*cli.Command{
			serve.Command(),
			snapshotcmd.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
