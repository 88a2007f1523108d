// SPDX-License-Identifier: Apache-2.0

package normalize_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/normalize"
	"github.com/trifoldproj/trifold/internal/structure"
)

// ---------------------------------------------------------------------------
// CollapseMap
// ---------------------------------------------------------------------------

func TestCollapse_ModifiedResidueBlock(t *testing.T) {
	// Raw dimension 5 with one modification spanning raw positions 2..4
	// must collapse to 3: position 1, the collapsed residue, position 5.
	m := normalize.CollapseFromSizes([]int{1, 3, 1})
	require.Equal(t, 5, m.RawLen())
	require.Equal(t, 3, m.ResidueLen())

	mat := make([][]float64, 5)
	for i := range mat {
		mat[i] = make([]float64, 5)
		for j := range mat[i] {
			mat[i][j] = float64(i*5 + j)
		}
	}

	got := m.CollapseMatrix(mat)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.0, got[0][0], 1e-9)
	assert.InDelta(t, 2.0, got[0][1], 1e-9)  // mean of row 0, cols 1..3
	assert.InDelta(t, 12.0, got[1][1], 1e-9) // mean of the 3x3 block
	assert.InDelta(t, 24.0, got[2][2], 1e-9) // untouched corner survives
}

func TestCollapse_RoundTripIndices(t *testing.T) {
	m := normalize.CollapseFromSizes([]int{1, 3, 1})

	assert.Equal(t, []int{1, 2, 3}, m.Raw(1))
	for _, raw := range m.Raw(1) {
		ri, err := m.Residue(raw)
		require.NoError(t, err)
		assert.Equal(t, 1, ri)
	}
	_, err := m.Residue(99)
	assert.Error(t, err)
}

func TestCollapse_Vector(t *testing.T) {
	m := normalize.CollapseFromSizes([]int{1, 3, 1})
	got := m.CollapseVector([]float64{10, 30, 60, 90, 20})
	assert.Equal(t, []float64{10, 60, 20}, got)
}

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

// modifiedCIF has a standard MET, a three-atom phosphoserine (HETATM) and
// a standard LYS: raw token space 1 + 3 + 1 = 5, residue space 3.
const modifiedCIF = `data_model
#
loop_
_atom_site.group_PDB
_atom_site.id
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_seq_id
_atom_site.B_iso_or_equiv
ATOM   1 C CA MET A 1 90.0
HETATM 2 C CA SEP A 2 80.0
HETATM 3 O P  SEP A 2 70.0
HETATM 4 O O1 SEP A 2 60.0
ATOM   5 C CA LYS A 3 50.0
#
`

func modifiedDoc(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.Decode([]byte(`{"name": "x", "sequences": [
		{"protein": {"id": "A", "sequence": "MSK",
			"modifications": [{"ptmType": "SEP", "ptmPosition": 2}]}}]}`))
	require.NoError(t, err)
	return doc
}

func squarePAE(n int) [][]float64 {
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		for j := range mat[i] {
			mat[i][j] = float64(i + j)
		}
	}
	return mat
}

func scoresJSON(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	return data
}

func mustStructure(t *testing.T, cif string) *structure.Structure {
	t.Helper()
	s, err := structure.Read(strings.NewReader(cif), "model")
	require.NoError(t, err)
	return s
}

func TestNormalize(t *testing.T) {
	doc := modifiedDoc(t)

	res, err := normalize.Normalize(normalize.Input{
		Tool:         "boltz",
		Seed:         1,
		Structure:    mustStructure(t, modifiedCIF),
		StructureRef: "model_0.cif",
		Scores: scoresJSON(t, map[string]interface{}{
			"pae":  squarePAE(5),
			"ptm":  0.84,
			"iptm": 0.61,
		}),
	}, doc)
	require.NoError(t, err)

	assert.Equal(t, "model_0.cif", res.StructureRef)
	require.Len(t, res.PairwiseError, 3)
	require.Len(t, res.PerResidueConfidence, 3)

	// Confidence falls back to B-factors: SEP atoms 80/70/60 average 70.
	assert.InDelta(t, 90.0, res.PerResidueConfidence[0], 1e-9)
	assert.InDelta(t, 70.0, res.PerResidueConfidence[1], 1e-9)
	assert.InDelta(t, 50.0, res.PerResidueConfidence[2], 1e-9)

	require.NotNil(t, res.Metrics.PTM)
	assert.InDelta(t, 0.84, *res.Metrics.PTM, 1e-9)
	require.NotNil(t, res.Metrics.IPTM)
	require.NotNil(t, res.Metrics.MeanConfidence)
	assert.InDelta(t, 70.0, *res.Metrics.MeanConfidence, 1e-9)
	assert.Empty(t, res.Warnings)
}

// multiAtomCIF has two standard residues of two atoms each: token space 2,
// atom space 4.
const multiAtomCIF = `data_model
#
loop_
_atom_site.group_PDB
_atom_site.id
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_seq_id
_atom_site.B_iso_or_equiv
ATOM 1 C CA MET A 1 90.0
ATOM 2 S SD MET A 1 80.0
ATOM 3 C CA LYS A 2 70.0
ATOM 4 N NZ LYS A 2 50.0
#
`

func TestNormalize_AtomwiseConfidenceCollapses(t *testing.T) {
	doc, err := document.Decode([]byte(`{"name": "x", "sequences": [
		{"protein": {"id": "A", "sequence": "MK"}}]}`))
	require.NoError(t, err)

	// AlphaFold3 and Chai both report atom_plddts with one entry per atom,
	// while pae stays token-wise.
	for _, tool := range []string{"alphafold3", "chai"} {
		t.Run(tool, func(t *testing.T) {
			res, err := normalize.Normalize(normalize.Input{
				Tool:      tool,
				Seed:      1,
				Structure: mustStructure(t, multiAtomCIF),
				Scores: scoresJSON(t, map[string]interface{}{
					"pae":         squarePAE(2),
					"atom_plddts": []float64{90, 80, 70, 50},
				}),
			}, doc)
			require.NoError(t, err)

			require.Len(t, res.PerResidueConfidence, 2)
			assert.InDelta(t, 85.0, res.PerResidueConfidence[0], 1e-9)
			assert.InDelta(t, 60.0, res.PerResidueConfidence[1], 1e-9)
			require.NotNil(t, res.Metrics.MeanConfidence)
			assert.InDelta(t, 72.5, *res.Metrics.MeanConfidence, 1e-9)
		})
	}

	// A length matching neither tokens nor atoms is still a mismatch.
	_, err = normalize.Normalize(normalize.Input{
		Tool:      "alphafold3",
		Seed:      1,
		Structure: mustStructure(t, multiAtomCIF),
		Scores: scoresJSON(t, map[string]interface{}{
			"pae":         squarePAE(2),
			"atom_plddts": []float64{90, 80, 70},
		}),
	}, doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, normalize.ErrDimensionMismatch)
}

func TestNormalize_OptionalMetricsAbsent(t *testing.T) {
	res, err := normalize.Normalize(normalize.Input{
		Tool:      "chai",
		Seed:      3,
		Structure: mustStructure(t, modifiedCIF),
		Scores:    scoresJSON(t, map[string]interface{}{"pae": squarePAE(5)}),
	}, modifiedDoc(t))
	require.NoError(t, err)

	assert.Nil(t, res.Metrics.PTM)
	assert.Nil(t, res.Metrics.IPTM)
	// The bound is inferred from the observed maximum when undeclared.
	assert.InDelta(t, 8.0, res.MaxError, 1e-9)
}

func TestNormalize_ObservedMaxBeatsDeclaredBound(t *testing.T) {
	pae := squarePAE(5)
	pae[4][4] = 25.0

	res, err := normalize.Normalize(normalize.Input{
		Tool:      "boltz",
		Seed:      1,
		Structure: mustStructure(t, modifiedCIF),
		Scores: scoresJSON(t, map[string]interface{}{
			"pae":     pae,
			"max_pae": 20.0,
		}),
	}, modifiedDoc(t))
	require.NoError(t, err)

	assert.InDelta(t, 25.0, res.MaxError, 1e-9)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "max-error-bound", res.Warnings[0].Feature)
}

func TestNormalize_DimensionMismatch(t *testing.T) {
	_, err := normalize.Normalize(normalize.Input{
		Tool:      "boltz",
		Seed:      1,
		Structure: mustStructure(t, modifiedCIF),
		Scores:    scoresJSON(t, map[string]interface{}{"pae": squarePAE(4)}),
	}, modifiedDoc(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, normalize.ErrDimensionMismatch)
}

func TestNormalize_IndexAlignment(t *testing.T) {
	doc, err := document.Decode([]byte(`{"name": "x", "sequences": [
		{"protein": {"id": "A", "sequence": "MSKAY"}}]}`))
	require.NoError(t, err)

	_, err = normalize.Normalize(normalize.Input{
		Tool:      "boltz",
		Seed:      1,
		Structure: mustStructure(t, modifiedCIF),
		Scores:    scoresJSON(t, map[string]interface{}{"pae": squarePAE(5)}),
	}, doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, normalize.ErrIndexAlignment)
}

func TestNormalize_MalformedScores(t *testing.T) {
	_, err := normalize.Normalize(normalize.Input{
		Tool:      "boltz",
		Seed:      1,
		Structure: mustStructure(t, modifiedCIF),
		Scores:    []byte("{not json"),
	}, modifiedDoc(t))
	assert.Error(t, err)

	_, err = normalize.Normalize(normalize.Input{
		Tool:      "boltz",
		Seed:      1,
		Structure: mustStructure(t, modifiedCIF),
		Scores:    []byte(`{"plddt": [1, 2, 3]}`),
	}, modifiedDoc(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pairwise error matrix")
}

func TestNormalizeAll_PartialFailureIsolation(t *testing.T) {
	doc := modifiedDoc(t)
	good := normalize.Input{
		Tool:      "boltz",
		Seed:      1,
		Structure: mustStructure(t, modifiedCIF),
		Scores:    scoresJSON(t, map[string]interface{}{"pae": squarePAE(5)}),
	}
	bad := normalize.Input{
		Tool:      "chai",
		Seed:      2,
		Structure: mustStructure(t, modifiedCIF),
		Scores:    scoresJSON(t, map[string]interface{}{"pae": squarePAE(2)}),
	}

	results, errs := normalize.NormalizeAll([]normalize.Input{good, bad}, doc)
	require.Len(t, results, 1)
	require.Len(t, errs, 1)
	assert.Equal(t, "boltz", results[0].Tool)
	assert.Contains(t, errs[0].Error(), fmt.Sprintf("chai seed %d", 2))
}
