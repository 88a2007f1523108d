// SPDX-License-Identifier: Apache-2.0

// Package normalize reconciles raw predictor outputs into one comparable
// result shape: residue-wise confidences and pairwise error aligned to the
// canonical document's numbering, with atom-wise values of ligands and
// modified residues collapsed to per-residue means.
package normalize

import (
	"errors"
	"fmt"

	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/structure"
)

var (
	// ErrDimensionMismatch marks a scores artifact whose matrix dimension
	// disagrees with the structure's raw token count.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexAlignment marks a collapsed result that cannot be aligned
	// to the canonical document's residue numbering.
	ErrIndexAlignment = errors.New("index alignment error")
)

// Metrics are the optional global scalars a tool may report. Nil means the
// tool did not report the value.
type Metrics struct {
	MeanConfidence *float64 `json:"mean_confidence,omitempty"`
	PTM            *float64 `json:"ptm,omitempty"`
	IPTM           *float64 `json:"iptm,omitempty"`
}

// Result is the normalized output of one (tool, seed) run. It is created
// once and never mutated afterwards.
type Result struct {
	Tool         string `json:"tool"`
	Seed         int    `json:"seed"`
	StructureRef string `json:"structure_ref,omitempty"`

	// PerResidueConfidence is aligned to the residue-wise model space of
	// the document (every chain copy, post collapse).
	PerResidueConfidence []float64 `json:"per_residue_confidence"`

	// PairwiseError is square in the same space. Rows are the scored
	// residue, columns the aligned residue; symmetry is not assumed.
	PairwiseError [][]float64 `json:"pairwise_error"`

	// MaxError is the error bound: the declared bound when consistent,
	// otherwise the observed matrix maximum.
	MaxError float64 `json:"max_error"`

	Metrics  Metrics            `json:"metrics"`
	Warnings []document.Warning `json:"warnings,omitempty"`
}

// Input is one raw (tool, seed) output unit.
type Input struct {
	Tool         string
	Seed         int
	Structure    *structure.Structure
	StructureRef string
	Scores       []byte
}

// Normalize parses and reconciles one raw predictor output against the
// canonical document.
func Normalize(in Input, doc *document.Document) (*Result, error) {
	fail := func(err error) (*Result, error) {
		return nil, fmt.Errorf("%s seed %d: %w", in.Tool, in.Seed, err)
	}

	tokens := in.Structure.Tokens()
	scores, err := parseScores(in.Tool, in.Scores)
	if err != nil {
		return fail(err)
	}

	n := len(tokens)
	if len(scores.PAE) != n {
		return fail(fmt.Errorf("%w: matrix has %d rows, structure has %d tokens",
			ErrDimensionMismatch, len(scores.PAE), n))
	}
	for i, row := range scores.PAE {
		if len(row) != n {
			return fail(fmt.Errorf("%w: matrix row %d has %d columns, want %d",
				ErrDimensionMismatch, i, len(row), n))
		}
	}

	confidence := scores.Confidence
	if confidence == nil {
		confidence = in.Structure.Confidences()
	}
	if len(confidence) != n {
		// AlphaFold3 reports atom_plddts per atom while the error matrix
		// is token-wise; average the atoms of each token down.
		collapsed, ok := atomsToTokens(confidence, in.Structure.TokenSizes())
		if !ok {
			return fail(fmt.Errorf("%w: confidence array has %d entries, structure has %d tokens",
				ErrDimensionMismatch, len(confidence), n))
		}
		confidence = collapsed
	}

	collapse := CollapseFromTokens(tokens)
	if collapse.ResidueLen() != doc.ModelResidueCount() {
		return fail(fmt.Errorf("%w: collapsed dimension %d does not match document residue count %d",
			ErrIndexAlignment, collapse.ResidueLen(), doc.ModelResidueCount()))
	}

	result := &Result{
		Tool:                 in.Tool,
		Seed:                 in.Seed,
		StructureRef:         in.StructureRef,
		PairwiseError:        collapse.CollapseMatrix(scores.PAE),
		PerResidueConfidence: collapse.CollapseVector(confidence),
		Metrics: Metrics{
			PTM:  scores.PTM,
			IPTM: scores.IPTM,
		},
	}

	observed := matrixMax(result.PairwiseError)
	result.MaxError = observed
	if scores.MaxPAE != nil {
		if *scores.MaxPAE >= observed {
			result.MaxError = *scores.MaxPAE
		} else {
			// The observed maximum wins over an understated bound; this
			// is a reportable condition, not a failure.
			result.Warnings = append(result.Warnings, document.Warning{
				Tool:    in.Tool,
				Feature: "max-error-bound",
				Message: fmt.Sprintf("declared bound %.2f is below observed maximum %.2f, using observed",
					*scores.MaxPAE, observed),
			})
		}
	}

	mean := vectorMean(result.PerResidueConfidence)
	result.Metrics.MeanConfidence = &mean
	return result, nil
}

// NormalizeAll processes several (tool, seed) units with partial-failure
// isolation: one unit failing never blocks the rest, and every error stays
// attributed to its unit.
func NormalizeAll(inputs []Input, doc *document.Document) ([]*Result, []error) {
	var results []*Result
	var errs []error
	for _, in := range inputs {
		res, err := Normalize(in, doc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// atomsToTokens averages an atom-wise array down to token space. ok is
// false when the array length is not the structure's atom total.
func atomsToTokens(vals []float64, sizes []int) ([]float64, bool) {
	total := 0
	for _, s := range sizes {
		total += s
	}
	if len(vals) != total {
		return nil, false
	}

	out := make([]float64, len(sizes))
	i := 0
	for t, size := range sizes {
		sum := 0.0
		for j := 0; j < size; j++ {
			sum += vals[i]
			i++
		}
		out[t] = sum / float64(size)
	}
	return out, true
}

func matrixMax(mat [][]float64) float64 {
	max := 0.0
	for _, row := range mat {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

func vectorMean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
