// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/project"
)

// MetadataPreparePredictionInputs describes the prepare_prediction_inputs tool.
var MetadataPreparePredictionInputs = &mcp.Tool{
	Name: "prepare_prediction_inputs",
	Description: "Project a canonical structure-prediction job document into the " +
		"native input formats of AlphaFold3, Boltz and Chai-1. " +
		"The document is AlphaFold3-style JSON describing the molecular complex: " +
		"polymer and ligand entities, seeds, covalent bonds, alignments and templates. " +
		"Each tool's projection lists per-seed job files plus any auxiliary files " +
		"(MSA and template artifacts). Features a tool cannot express are reported " +
		"as warnings, not failures, unless strict per-tool semantics would be violated.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"document"},
		"properties": map[string]interface{}{
			"document": map[string]interface{}{
				"type":        "string",
				"description": "Canonical job document as AlphaFold3-style JSON",
			},
			"tools": map[string]interface{}{
				"type":        "array",
				"description": "Subset of tools to project for. Defaults to all three.",
				"items": map[string]interface{}{
					"type": "string",
					"enum": []string{"alphafold3", "boltz", "chai"},
				},
			},
		},
	},
}

// InputPreparePredictionInputs is the input for the PreparePredictionInputs tool.
type InputPreparePredictionInputs struct {
	Document string   `json:"document"`
	Tools    []string `json:"tools"`
}

// FileOut is one generated file, inlined.
type FileOut struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ProjectionOut is one tool's generated input set.
type ProjectionOut struct {
	Tool     string             `json:"tool"`
	Jobs     []FileOut          `json:"jobs"`
	Aux      []FileOut          `json:"aux,omitempty"`
	Warnings []document.Warning `json:"warnings,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// OutputPreparePredictionInputs is the output for the PreparePredictionInputs tool.
type OutputPreparePredictionInputs struct {
	// Projections holds one entry per requested tool, in request order.
	Projections []ProjectionOut `json:"projections"`
}

// PreparePredictionInputs decodes the canonical document and runs the
// requested projectors over it. A projector failing is reported in its own
// entry and never blocks the others.
func PreparePredictionInputs(ctx context.Context, _ *mcp.CallToolRequest, input InputPreparePredictionInputs) (*mcp.CallToolResult, OutputPreparePredictionInputs, error) {
	if input.Document == "" {
		return nil, OutputPreparePredictionInputs{}, fmt.Errorf("document is required")
	}

	doc, err := document.Decode([]byte(input.Document))
	if err != nil {
		return nil, OutputPreparePredictionInputs{}, err
	}

	projectors := project.All()
	if len(input.Tools) > 0 {
		projectors = projectors[:0]
		for _, name := range input.Tools {
			p, err := project.ForTool(name)
			if err != nil {
				return nil, OutputPreparePredictionInputs{}, err
			}
			projectors = append(projectors, p)
		}
	}

	var out OutputPreparePredictionInputs
	for _, res := range project.ProjectAll(doc, projectors...) {
		entry := ProjectionOut{Tool: res.Tool}
		if res.Err != nil {
			entry.Error = res.Err.Error()
			out.Projections = append(out.Projections, entry)
			continue
		}
		for _, job := range res.Projection.Jobs {
			entry.Jobs = append(entry.Jobs, FileOut{Name: job.Filename, Content: string(job.Content)})
		}
		for _, aux := range res.Projection.Aux {
			entry.Aux = append(entry.Aux, FileOut{Name: aux.Name, Content: string(aux.Content)})
		}
		entry.Warnings = res.Projection.Warnings
		out.Projections = append(out.Projections, entry)
	}
	return nil, out, nil
}
