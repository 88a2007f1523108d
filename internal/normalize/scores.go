// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"encoding/json"
	"fmt"
)

// rawScores is the tool-independent content of a parsed scores artifact.
// PAE is mandatory; everything else is genuinely optional and stays nil
// when the tool does not report it.
type rawScores struct {
	PAE        [][]float64
	Confidence []float64
	PTM        *float64
	IPTM       *float64
	MaxPAE     *float64
}

// scoreKeys names the JSON keys each tool uses for the shared quantities.
// First match wins within each list.
var scoreKeys = map[string]struct {
	pae        []string
	confidence []string
	ptm        []string
	iptm       []string
	maxPAE     []string
}{
	"alphafold3": {
		pae:        []string{"pae"},
		confidence: []string{"atom_plddts"},
		ptm:        []string{"ptm"},
		iptm:       []string{"iptm"},
		maxPAE:     []string{"max_predicted_aligned_error"},
	},
	"boltz": {
		pae:        []string{"pae"},
		confidence: []string{"plddt"},
		ptm:        []string{"ptm"},
		iptm:       []string{"iptm"},
		maxPAE:     []string{"max_pae"},
	},
	"chai": {
		pae:        []string{"pae"},
		confidence: []string{"plddt", "atom_plddts"},
		ptm:        []string{"ptm", "aggregate_score"},
		iptm:       []string{"iptm"},
		maxPAE:     []string{"max_pae"},
	},
}

// parseScores decodes a raw scores artifact for the given tool. A missing
// or malformed file is an error; only the scalar metrics may be absent.
func parseScores(tool string, data []byte) (rawScores, error) {
	keys, ok := scoreKeys[tool]
	if !ok {
		return rawScores{}, fmt.Errorf("unknown tool %q", tool)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return rawScores{}, fmt.Errorf("scores artifact is not valid JSON: %w", err)
	}

	var out rawScores
	raw, ok := firstKey(doc, keys.pae)
	if !ok {
		return rawScores{}, fmt.Errorf("scores artifact has no pairwise error matrix (looked for %v)", keys.pae)
	}
	if err := json.Unmarshal(raw, &out.PAE); err != nil {
		return rawScores{}, fmt.Errorf("pairwise error matrix: %w", err)
	}

	if raw, ok := firstKey(doc, keys.confidence); ok {
		if err := json.Unmarshal(raw, &out.Confidence); err != nil {
			return rawScores{}, fmt.Errorf("per-position confidence: %w", err)
		}
	}

	var err error
	if out.PTM, err = scalar(doc, keys.ptm); err != nil {
		return rawScores{}, err
	}
	if out.IPTM, err = scalar(doc, keys.iptm); err != nil {
		return rawScores{}, err
	}
	if out.MaxPAE, err = scalar(doc, keys.maxPAE); err != nil {
		return rawScores{}, err
	}
	return out, nil
}

func firstKey(doc map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := doc[k]; ok {
			return raw, true
		}
	}
	return nil, false
}

func scalar(doc map[string]json.RawMessage, keys []string) (*float64, error) {
	raw, ok := firstKey(doc, keys)
	if !ok {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("scalar metric %v: %w", keys, err)
	}
	return &v, nil
}
