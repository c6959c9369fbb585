// Package snapshot implements the "snapshot" CLI sub-command, an operator
// tool for inspecting a persisted Project file without starting the server.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	corsnapshot "github.com/cuemap/cuemap/internal/snapshot"
)

// Command returns the snapshot sub-command and its "inspect" child.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Inspect persisted snapshot files",
		Commands: []*cli.Command{
			inspectCommand(),
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode a snapshot file and print its summary",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("snapshot inspect: a file argument is required")
			}

			snap, err := corsnapshot.Load(path)
			if err != nil {
				return fmt.Errorf("snapshot inspect: %w", err)
			}
			if snap == nil {
				log.Info("snapshot inspect: no file at path, no prior state", "path", path)
				return nil
			}

			cueCount := len(snap.CueIndex)
			savedAt := time.Unix(snap.SavedAt, 0)
			log.Info("snapshot summary",
				"path", path,
				"version", snap.Version,
				"saved_at", savedAt.Format(time.RFC3339),
				"memories", len(snap.Memories),
				"cues", cueCount,
				"aliases", len(snap.Aliases),
				"lexicon_entries", len(snap.Lexicon),
			)
			return nil
		},
	}
}
