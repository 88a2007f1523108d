// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/normalize"
	"github.com/trifoldproj/trifold/internal/store"
	"github.com/trifoldproj/trifold/internal/structure"
	"github.com/trifoldproj/trifold/internal/watch"
)

// watchCmd normalizes prediction outputs as they land in a directory.
var watchCmd = &cobra.Command{
	Use:   "watch [document.json] [dir]",
	Short: "Watch a directory and normalize each completed (tool, seed) output pair",
	Args:  cobra.ExactArgs(2),
	Run:   runWatch,
}

func init() {
	watchCmd.Flags().StringP("db", "d", "trifold.db", "store database for normalized results")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	dbPath, _ := cmd.Flags().GetString("db")

	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}
	doc, err := document.Decode(data)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	w, err := watch.New()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pairs, err := w.Watch(ctx, args[1])
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("watching %s for prediction outputs", args[1])
	for pair := range pairs {
		res, err := normalizePair(pair, doc)
		if err != nil {
			log.Printf("%v", err)
			continue
		}
		for _, warn := range res.Warnings {
			log.Printf("warning: %s", warn)
		}
		if err := db.Save(ctx, doc.Name, res); err != nil {
			log.Printf("%v", err)
			continue
		}
		log.Printf("stored %s seed %d (%s)", res.Tool, res.Seed, res.StructureRef)
	}
}

func normalizePair(pair watch.Pair, doc *document.Document) (*normalize.Result, error) {
	s, err := structure.ReadFile(pair.StructurePath)
	if err != nil {
		return nil, err
	}
	scores, err := os.ReadFile(pair.ScoresPath)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(normalize.Input{
		Tool:         pair.Tool,
		Seed:         pair.Seed,
		Structure:    s,
		StructureRef: pair.StructurePath,
		Scores:       scores,
	}, doc)
}
