// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/normalize"
	"github.com/trifoldproj/trifold/internal/store"
	"github.com/trifoldproj/trifold/internal/structure"
)

// normalizeCmd reconciles one raw predictor output against the document.
var normalizeCmd = &cobra.Command{
	Use:   "normalize [document.json]",
	Short: "Normalize one predictor output (mmCIF + scores JSON) into the shared result shape",
	Args:  cobra.ExactArgs(1),
	Run:   runNormalize,
}

func init() {
	normalizeCmd.Flags().StringP("tool", "t", "", "tool that produced the output: alphafold3, boltz or chai")
	normalizeCmd.Flags().IntP("seed", "s", 0, "seed of the run")
	normalizeCmd.Flags().StringP("structure", "m", "", "predicted model file (mmCIF)")
	normalizeCmd.Flags().StringP("scores", "c", "", "raw scores artifact (JSON)")
	normalizeCmd.Flags().StringP("out", "o", "", "write normalized result JSON here (default: stdout)")
	normalizeCmd.Flags().StringP("db", "d", "", "also save the result into this store database")
	normalizeCmd.MarkFlagRequired("tool")
	normalizeCmd.MarkFlagRequired("structure")
	normalizeCmd.MarkFlagRequired("scores")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) {
	tool, _ := cmd.Flags().GetString("tool")
	seed, _ := cmd.Flags().GetInt("seed")
	structurePath, _ := cmd.Flags().GetString("structure")
	scoresPath, _ := cmd.Flags().GetString("scores")
	outPath, _ := cmd.Flags().GetString("out")
	dbPath, _ := cmd.Flags().GetString("db")

	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}
	doc, err := document.Decode(data)
	if err != nil {
		log.Fatalf("%v", err)
	}

	s, err := structure.ReadFile(structurePath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	scores, err := os.ReadFile(scoresPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	res, err := normalize.Normalize(normalize.Input{
		Tool:         tool,
		Seed:         seed,
		Structure:    s,
		StructureRef: structurePath,
		Scores:       scores,
	}, doc)
	if err != nil {
		log.Fatalf("%v", err)
	}
	for _, w := range res.Warnings {
		log.Printf("warning: %s", w)
	}

	if dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer db.Close()
		if err := db.Save(context.Background(), doc.Name, res); err != nil {
			log.Fatalf("%v", err)
		}
	}

	encoded, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Fatalf("%v", err)
	}
	if outPath == "" {
		os.Stdout.Write(append(encoded, '\n'))
		return
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		log.Fatalf("%v", err)
	}
}
