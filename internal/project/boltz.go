// SPDX-License-Identifier: Apache-2.0

package project

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/trifoldproj/trifold/internal/document"
)

// Boltz projects the canonical document into the Boltz YAML schema.
// Homo-oligomeric entities stay single objects with an id list (Boltz
// rejects duplicated single-label entities with identical sequence, so
// they must not be expanded). Paired MSAs are not supported and only
// unpaired rows are passed. Templates are not supported either: they are
// dropped, and the caller gets a warning rather than a failure.
type Boltz struct{}

// NewBoltz creates the Boltz projector.
func NewBoltz() *Boltz {
	return &Boltz{}
}

func (p *Boltz) Tool() string { return "boltz" }

type boltzModification struct {
	Position int    `yaml:"position"`
	CCD      string `yaml:"ccd"`
}

type boltzPolymer struct {
	ID            interface{}         `yaml:"id"`
	Sequence      string              `yaml:"sequence"`
	MSA           string              `yaml:"msa,omitempty"`
	Modifications []boltzModification `yaml:"modifications,omitempty"`
}

type boltzLigand struct {
	ID     interface{} `yaml:"id"`
	CCD    string      `yaml:"ccd,omitempty"`
	Smiles string      `yaml:"smiles,omitempty"`
}

type boltzBond struct {
	Atom1 []interface{} `yaml:"atom1"`
	Atom2 []interface{} `yaml:"atom2"`
}

type boltzDoc struct {
	Version     int                      `yaml:"version"`
	Sequences   []map[string]interface{} `yaml:"sequences"`
	Constraints []map[string]boltzBond   `yaml:"constraints,omitempty"`
}

func (p *Boltz) Project(doc *document.Document) (Projection, error) {
	proj := Projection{Tool: p.Tool()}

	out := boltzDoc{Version: 1}
	used := make(map[string]bool)
	multiCCD := make(map[string]bool)
	for _, e := range doc.Entities {
		for _, l := range e.Labels {
			used[l] = true
		}
	}

	for _, e := range doc.Entities {
		if e.Template != nil {
			proj.Warnings = append(proj.Warnings, document.Warning{
				Tool:    p.Tool(),
				Feature: "templates",
				Message: fmt.Sprintf("templates unsupported, dropping template %q for entity %q",
					e.Template.SourceID, e.Labels[0]),
			})
		}

		switch e.Kind {
		case document.KindLigand:
			entries, err := p.ligandEntries(e, used, multiCCD)
			if err != nil {
				return Projection{}, err
			}
			out.Sequences = append(out.Sequences, entries...)
		default:
			polymer := boltzPolymer{
				ID:       yamlID(e.Labels),
				Sequence: e.Sequence,
			}
			for _, m := range e.Modifications {
				polymer.Modifications = append(polymer.Modifications, boltzModification{
					Position: m.Position, CCD: m.CCD,
				})
			}
			if e.Kind == document.KindProtein && e.Alignment != nil && len(e.Alignment.Unpaired) > 0 {
				name := fmt.Sprintf("%s_%s.a3m", doc.Name, e.Labels[0])
				proj.Aux = append(proj.Aux, AuxFile{Name: name, Content: a3mContent(e.Alignment.Unpaired)})
				polymer.MSA = name
			}
			out.Sequences = append(out.Sequences, map[string]interface{}{string(e.Kind): polymer})
		}
	}

	for _, b := range doc.Bonds {
		if multiCCD[b.First.Chain] || multiCCD[b.Second.Chain] {
			return Projection{}, unsupported(p.Tool(), "bonds on multi-component CCD ligands")
		}
		out.Constraints = append(out.Constraints, map[string]boltzBond{"bond": {
			Atom1: []interface{}{b.First.Chain, b.First.Residue, b.First.Atom},
			Atom2: []interface{}{b.Second.Chain, b.Second.Residue, b.Second.Atom},
		}})
	}

	content, err := yaml.Marshal(out)
	if err != nil {
		return Projection{}, fmt.Errorf("boltz: %w", err)
	}
	for _, seed := range seedsOrDefault(doc) {
		proj.Jobs = append(proj.Jobs, Job{
			Seed:     seed,
			Filename: fmt.Sprintf("%s_seed-%d_boltz.yaml", doc.Name, seed),
			Content:  content,
		})
	}
	return proj, nil
}

// ligandEntries emits one ligand object per CCD code. Boltz takes a single
// code per ligand, so a multi-component ligand becomes its declared chain
// plus synthesized follow-on chains.
func (p *Boltz) ligandEntries(e *document.Entity, used, multiCCD map[string]bool) ([]map[string]interface{}, error) {
	if e.Smiles != "" {
		return []map[string]interface{}{
			{"ligand": boltzLigand{ID: yamlID(e.Labels), Smiles: e.Smiles}},
		}, nil
	}

	var entries []map[string]interface{}
	for i, code := range e.CCDCodes {
		var id interface{}
		if i == 0 {
			id = yamlID(e.Labels)
		} else {
			next := nextFreeLabel(used)
			used[next] = true
			id = next
		}
		entries = append(entries, map[string]interface{}{
			"ligand": boltzLigand{ID: id, CCD: code},
		})
	}
	if len(e.CCDCodes) > 1 {
		for _, l := range e.Labels {
			multiCCD[l] = true
		}
	}
	return entries, nil
}

// yamlID keeps a single label as a scalar and multiple labels as a list,
// matching what Boltz expects for homo-oligomers.
func yamlID(labels []string) interface{} {
	if len(labels) == 1 {
		return labels[0]
	}
	return labels
}

// nextFreeLabel returns the first unused chain label in AF3 label order:
// A..Z, then AA, AB, ...
func nextFreeLabel(used map[string]bool) string {
	for c := 'A'; c <= 'Z'; c++ {
		l := string(c)
		if !used[l] {
			return l
		}
	}
	for c1 := 'A'; c1 <= 'Z'; c1++ {
		for c2 := 'A'; c2 <= 'Z'; c2++ {
			l := string(c1) + string(c2)
			if !used[l] {
				return l
			}
		}
	}
	return ""
}

func a3mContent(rows []string) []byte {
	var out []byte
	for i, row := range rows {
		if i == 0 {
			out = append(out, []byte(">query\n")...)
		} else {
			out = append(out, []byte(fmt.Sprintf(">seq-%d\n", i))...)
		}
		out = append(out, []byte(row)...)
		out = append(out, '\n')
	}
	return out
}
