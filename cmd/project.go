// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/project"
)

// projectCmd turns one canonical document into per-tool input directories.
var projectCmd = &cobra.Command{
	Use:   "project [document.json]",
	Short: "Generate AlphaFold3, Boltz and Chai-1 input files from a job document",
	Args:  cobra.ExactArgs(1),
	Run:   runProject,
}

func init() {
	projectCmd.Flags().StringP("out", "o", ".", "output directory (one subdirectory per tool)")
	projectCmd.Flags().StringSliceP("tools", "t", nil, "tools to project for (default: all)")
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) {
	outDir, _ := cmd.Flags().GetString("out")
	tools, _ := cmd.Flags().GetStringSlice("tools")

	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}
	doc, err := document.Decode(data)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var projectors []project.Projector
	for _, name := range tools {
		p, err := project.ForTool(name)
		if err != nil {
			log.Fatalf("%v", err)
		}
		projectors = append(projectors, p)
	}

	failed := false
	for _, res := range project.ProjectAll(doc, projectors...) {
		if res.Err != nil {
			log.Printf("%s: %v", res.Tool, res.Err)
			failed = true
			continue
		}
		if err := writeProjection(outDir, res.Projection); err != nil {
			log.Fatalf("%s: %v", res.Tool, err)
		}
		for _, w := range res.Projection.Warnings {
			log.Printf("warning: %s", w)
		}
		fmt.Printf("%s: %d job file(s), %d auxiliary file(s)\n",
			res.Tool, len(res.Projection.Jobs), len(res.Projection.Aux))
	}
	if failed {
		os.Exit(1)
	}
}

func writeProjection(outDir string, proj project.Projection) error {
	dir := filepath.Join(outDir, proj.Tool)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, job := range proj.Jobs {
		if err := os.WriteFile(filepath.Join(dir, job.Filename), job.Content, 0o644); err != nil {
			return err
		}
	}
	for _, aux := range proj.Aux {
		if err := os.WriteFile(filepath.Join(dir, aux.Name), aux.Content, 0o644); err != nil {
			return err
		}
	}
	return nil
}
