// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/trifoldproj/trifold/internal/tool"
)

// serveCmd exposes the projection and normalization tools over MCP stdio.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve prepare_prediction_inputs and normalize_prediction_outputs over MCP stdio",
	Args:  cobra.NoArgs,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "trifold",
		Version: rootCmd.Version,
	}, nil)

	mcp.AddTool(server, tool.MetadataPreparePredictionInputs, tool.PreparePredictionInputs)
	mcp.AddTool(server, tool.MetadataNormalizePredictionOutputs, tool.NormalizePredictionOutputs)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("%v", err)
	}
}
