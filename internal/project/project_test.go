// SPDX-License-Identifier: Apache-2.0

package project_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/msa"
	"github.com/trifoldproj/trifold/internal/project"
)

func homodimerDoc(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.Decode([]byte(`{
		"name": "homodimer",
		"modelSeeds": [1, 2],
		"sequences": [{"protein": {"id": ["A", "B"], "sequence": "MKT"}}]
	}`))
	require.NoError(t, err)
	return doc
}

// ---------------------------------------------------------------------------
// AlphaFold projector
// ---------------------------------------------------------------------------

func TestAlphaFold_OneJobPerSeed(t *testing.T) {
	proj, err := project.NewAlphaFold().Project(homodimerDoc(t))
	require.NoError(t, err)

	require.Len(t, proj.Jobs, 2)
	assert.Equal(t, 1, proj.Jobs[0].Seed)
	assert.Equal(t, 2, proj.Jobs[1].Seed)

	var job map[string]interface{}
	require.NoError(t, json.Unmarshal(proj.Jobs[0].Content, &job))
	assert.Equal(t, []interface{}{float64(1)}, job["modelSeeds"])
	assert.Equal(t, "alphafold3", job["dialect"])

	// Homo-oligomer stays one object with an id list.
	seqs := job["sequences"].([]interface{})
	require.Len(t, seqs, 1)
	protein := seqs[0].(map[string]interface{})["protein"].(map[string]interface{})
	assert.Equal(t, []interface{}{"A", "B"}, protein["id"])
}

func TestAlphaFold_PairedOnlyWhenUniversal(t *testing.T) {
	doc, err := document.Decode([]byte(`{"name": "x", "sequences": [
		{"protein": {"id": "A", "sequence": "MKT"}},
		{"protein": {"id": "B", "sequence": "AYI"}}]}`))
	require.NoError(t, err)

	_, err = msa.NewBatch().
		Add("A", msa.Rows{Unpaired: []string{"MKT"}, Paired: []string{"MKT"}}).
		Add("B", msa.Rows{Unpaired: []string{"AYI"}, Paired: []string{"AYI"}}).
		Apply(doc)
	require.NoError(t, err)

	proj, err := project.NewAlphaFold().Project(doc)
	require.NoError(t, err)
	assert.Contains(t, string(proj.Jobs[0].Content), "pairedMsa")
	assert.Contains(t, string(proj.Jobs[0].Content), "MKT")

	// Drop B's pairing: the paired MSA must be omitted entirely.
	doc.Entities[1].Alignment.Paired = nil
	proj, err = project.NewAlphaFold().Project(doc)
	require.NoError(t, err)

	var job struct {
		Sequences []map[string]struct {
			PairedMSA string `json:"pairedMsa"`
		} `json:"sequences"`
	}
	require.NoError(t, json.Unmarshal(proj.Jobs[0].Content, &job))
	assert.Empty(t, job.Sequences[0]["protein"].PairedMSA)
}

// ---------------------------------------------------------------------------
// Boltz projector
// ---------------------------------------------------------------------------

func TestBoltz_KeepsIDList(t *testing.T) {
	proj, err := project.NewBoltz().Project(homodimerDoc(t))
	require.NoError(t, err)
	require.Len(t, proj.Jobs, 2)

	var out struct {
		Version   int                      `yaml:"version"`
		Sequences []map[string]interface{} `yaml:"sequences"`
	}
	require.NoError(t, yaml.Unmarshal(proj.Jobs[0].Content, &out))
	assert.Equal(t, 1, out.Version)
	require.Len(t, out.Sequences, 1)

	protein := out.Sequences[0]["protein"].(map[string]interface{})
	assert.Equal(t, []interface{}{"A", "B"}, protein["id"])
}

func TestBoltz_TemplatesDroppedWithWarning(t *testing.T) {
	doc := homodimerDoc(t)
	doc.Entities[0].Template = &document.Template{
		SourceID: "1abc", Chain: "T", QueryIndices: []int{0}, TemplateIndices: []int{0},
	}

	proj, err := project.NewBoltz().Project(doc)
	require.NoError(t, err)

	require.Len(t, proj.Warnings, 1)
	assert.Equal(t, "templates", proj.Warnings[0].Feature)
	assert.NotContains(t, string(proj.Jobs[0].Content), "1abc")
}

func TestBoltz_UnpairedOnly(t *testing.T) {
	doc := homodimerDoc(t)
	doc.Entities[0].Alignment = &document.Alignment{
		Unpaired: []string{"MKT", "MRT"},
		Paired:   []string{"MKT"},
	}

	proj, err := project.NewBoltz().Project(doc)
	require.NoError(t, err)

	require.Len(t, proj.Aux, 1)
	assert.Contains(t, string(proj.Aux[0].Content), "MRT")
	assert.Contains(t, string(proj.Jobs[0].Content), proj.Aux[0].Name)
}

func TestBoltz_MultiCCDLigandExpands(t *testing.T) {
	doc, err := document.Decode([]byte(`{"name": "x", "sequences": [
		{"protein": {"id": "A", "sequence": "MKT"}},
		{"ligand": {"id": "L", "ccdCodes": ["HEM", "ZN"]}}]}`))
	require.NoError(t, err)

	proj, err := project.NewBoltz().Project(doc)
	require.NoError(t, err)

	var out struct {
		Sequences []map[string]map[string]interface{} `yaml:"sequences"`
	}
	require.NoError(t, yaml.Unmarshal(proj.Jobs[0].Content, &out))
	require.Len(t, out.Sequences, 3)
	assert.Equal(t, "HEM", out.Sequences[1]["ligand"]["ccd"])
	assert.Equal(t, "ZN", out.Sequences[2]["ligand"]["ccd"])
	// The follow-on component gets the next free chain label.
	assert.Equal(t, "B", out.Sequences[2]["ligand"]["id"])
}

// ---------------------------------------------------------------------------
// Chai projector
// ---------------------------------------------------------------------------

func TestChai_ExpandsHomoOligomer(t *testing.T) {
	proj, err := project.NewChai().Project(homodimerDoc(t))
	require.NoError(t, err)

	fasta := string(proj.Jobs[0].Content)
	assert.Contains(t, fasta, ">protein|A\nMKT\n")
	assert.Contains(t, fasta, ">protein|B\nMKT\n")
	assert.Equal(t, 2, strings.Count(fasta, "MKT"))
}

func TestChai_PairedFallsBackToUnpaired(t *testing.T) {
	doc := homodimerDoc(t)
	doc.Entities[0].Alignment = &document.Alignment{Unpaired: []string{"MKT", "MRT"}}

	proj, err := project.NewChai().Project(doc)
	require.NoError(t, err)
	require.Len(t, proj.Aux, 1)
	assert.Contains(t, string(proj.Aux[0].Content), "MRT")

	doc.Entities[0].Alignment.Paired = []string{"MKT", "MQT"}
	proj, err = project.NewChai().Project(doc)
	require.NoError(t, err)
	require.Len(t, proj.Aux, 1)
	assert.Contains(t, string(proj.Aux[0].Content), "MQT")
}

func TestChai_TemplatesAndRestraints(t *testing.T) {
	doc, err := document.Decode([]byte(`{"name": "x", "sequences": [
		{"protein": {"id": "A", "sequence": "MKTCY"}},
		{"protein": {"id": "B", "sequence": "CYAKR"}}],
		"bondedAtomPairs": [[["A", 4, "SG"], ["B", 1, "SG"]]]}`))
	require.NoError(t, err)
	doc.Entities[0].Template = &document.Template{
		SourceID: "1abc", Chain: "T", QueryIndices: []int{0}, TemplateIndices: []int{0},
	}

	proj, err := project.NewChai().Project(doc)
	require.NoError(t, err)

	names := make(map[string]string)
	for _, aux := range proj.Aux {
		names[aux.Name] = string(aux.Content)
	}
	require.Contains(t, names, "x_templates.m8")
	assert.Contains(t, names["x_templates.m8"], "A\t1abc_T")
	require.Contains(t, names, "x_restraints.csv")
	assert.Contains(t, names["x_restraints.csv"], "A,C4@SG,B,C1@SG,contact")
}

// ---------------------------------------------------------------------------
// ProjectAll
// ---------------------------------------------------------------------------

func TestProjectAll_IsolatesFailures(t *testing.T) {
	doc := homodimerDoc(t)

	results := project.ProjectAll(doc)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Len(t, r.Projection.Jobs, 2)
	}
}
