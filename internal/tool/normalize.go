// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/normalize"
	"github.com/trifoldproj/trifold/internal/structure"
)

// MetadataNormalizePredictionOutputs describes the normalize_prediction_outputs tool.
var MetadataNormalizePredictionOutputs = &mcp.Tool{
	Name: "normalize_prediction_outputs",
	Description: "Reconcile raw predictor outputs (mmCIF structure plus scores JSON, " +
		"per tool and seed) into one comparable result shape aligned to the canonical " +
		"document's residue numbering. Atom-wise values of ligands and modified " +
		"residues are collapsed to per-residue means. Units fail independently: one " +
		"malformed output never blocks the others.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"document", "outputs"},
		"properties": map[string]interface{}{
			"document": map[string]interface{}{
				"type":        "string",
				"description": "Canonical job document as AlphaFold3-style JSON",
			},
			"outputs": map[string]interface{}{
				"type":        "array",
				"description": "Raw output units, one per (tool, seed)",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []string{"tool", "seed", "structure", "scores"},
					"properties": map[string]interface{}{
						"tool": map[string]interface{}{
							"type": "string",
							"enum": []string{"alphafold3", "boltz", "chai"},
						},
						"seed": map[string]interface{}{
							"type": "integer",
						},
						"structure": map[string]interface{}{
							"type":        "string",
							"description": "Predicted model in mmCIF format",
						},
						"structure_ref": map[string]interface{}{
							"type":        "string",
							"description": "Stable reference to the model file, echoed into the result",
						},
						"scores": map[string]interface{}{
							"type":        "string",
							"description": "Raw scores artifact as JSON",
						},
					},
				},
			},
		},
	},
}

// RawOutput is one (tool, seed) output unit as submitted by the caller.
type RawOutput struct {
	Tool         string `json:"tool"`
	Seed         int    `json:"seed"`
	Structure    string `json:"structure"`
	StructureRef string `json:"structure_ref"`
	Scores       string `json:"scores"`
}

// InputNormalizePredictionOutputs is the input for the NormalizePredictionOutputs tool.
type InputNormalizePredictionOutputs struct {
	Document string      `json:"document"`
	Outputs  []RawOutput `json:"outputs"`
}

// OutputNormalizePredictionOutputs is the output for the NormalizePredictionOutputs tool.
type OutputNormalizePredictionOutputs struct {
	// Results holds the successfully normalized units.
	Results []*normalize.Result `json:"results"`
	// Errors holds one message per failed unit, attributed to its tool and seed.
	Errors []string `json:"errors,omitempty"`
}

// NormalizePredictionOutputs parses each raw unit and normalizes it against
// the canonical document with partial-failure isolation.
func NormalizePredictionOutputs(ctx context.Context, _ *mcp.CallToolRequest, input InputNormalizePredictionOutputs) (*mcp.CallToolResult, OutputNormalizePredictionOutputs, error) {
	if input.Document == "" {
		return nil, OutputNormalizePredictionOutputs{}, fmt.Errorf("document is required")
	}
	if len(input.Outputs) == 0 {
		return nil, OutputNormalizePredictionOutputs{}, fmt.Errorf("at least one output unit is required")
	}

	doc, err := document.Decode([]byte(input.Document))
	if err != nil {
		return nil, OutputNormalizePredictionOutputs{}, err
	}

	var out OutputNormalizePredictionOutputs
	var inputs []normalize.Input
	for _, raw := range input.Outputs {
		s, err := structure.Read(strings.NewReader(raw.Structure), raw.StructureRef)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("%s seed %d: %v", raw.Tool, raw.Seed, err))
			continue
		}
		inputs = append(inputs, normalize.Input{
			Tool:         raw.Tool,
			Seed:         raw.Seed,
			Structure:    s,
			StructureRef: raw.StructureRef,
			Scores:       []byte(raw.Scores),
		})
	}

	results, errs := normalize.NormalizeAll(inputs, doc)
	out.Results = results
	for _, err := range errs {
		out.Errors = append(out.Errors, err.Error())
	}
	return nil, out, nil
}
