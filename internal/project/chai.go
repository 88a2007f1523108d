// SPDX-License-Identifier: Apache-2.0

package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/trifoldproj/trifold/internal/document"
)

// Chai projects the canonical document into a Chai-1 FASTA plus its
// sidecar artifacts. Chai cannot express a multi-label entity, so every
// label of a homo-oligomer is expanded into its own FASTA record with the
// shared sequence. Paired MSAs are passed when the whole complex is
// paired, falling back to unpaired rows otherwise. Templates travel as an
// m8-style hit list and covalent bonds as a contact-restraints CSV.
type Chai struct{}

// NewChai creates the Chai-1 projector.
func NewChai() *Chai {
	return &Chai{}
}

func (p *Chai) Tool() string { return "chai" }

func (p *Chai) Project(doc *document.Document) (Projection, error) {
	proj := Projection{Tool: p.Tool()}

	var fasta strings.Builder
	usePaired := pairedUniversal(doc)

	for _, e := range doc.Entities {
		switch e.Kind {
		case document.KindLigand:
			for _, label := range e.Labels {
				fasta.WriteString(ligandRecord(label, e))
			}
		default:
			for _, label := range e.Labels {
				fmt.Fprintf(&fasta, ">%s|%s\n%s\n", e.Kind, label, e.Sequence)
			}
			if e.Kind == document.KindProtein && e.Alignment != nil {
				rows := e.Alignment.Unpaired
				if usePaired {
					rows = e.Alignment.Paired
				}
				if len(rows) > 0 {
					name := fmt.Sprintf("%s.aligned.a3m", sequenceHash(e.Sequence))
					proj.Aux = append(proj.Aux, AuxFile{Name: name, Content: a3mContent(rows)})
				}
			}
		}
	}

	if aux := templateHits(doc); aux != nil {
		proj.Aux = append(proj.Aux, *aux)
	}

	if len(doc.Bonds) > 0 {
		csv, warnings, err := restraintsCSV(doc)
		if err != nil {
			return Projection{}, err
		}
		proj.Warnings = append(proj.Warnings, warnings...)
		if csv != nil {
			proj.Aux = append(proj.Aux, AuxFile{Name: doc.Name + "_restraints.csv", Content: csv})
		}
	}

	content := []byte(fasta.String())
	for _, seed := range seedsOrDefault(doc) {
		proj.Jobs = append(proj.Jobs, Job{
			Seed:     seed,
			Filename: fmt.Sprintf("%s_seed-%d_chai.fasta", doc.Name, seed),
			Content:  content,
		})
	}
	return proj, nil
}

func ligandRecord(label string, e *document.Entity) string {
	if e.Smiles != "" {
		return fmt.Sprintf(">ligand|%s\n%s\n", label, e.Smiles)
	}
	var codes strings.Builder
	for _, c := range e.CCDCodes {
		fmt.Fprintf(&codes, "(%s)", c)
	}
	return fmt.Sprintf(">ligand|%s\n%s\n", label, codes.String())
}

// templateHits renders every attached template as one m8-style hit row per
// chain label of its entity.
func templateHits(doc *document.Document) *AuxFile {
	var rows []string
	for _, e := range doc.Entities {
		if e.Template == nil {
			continue
		}
		for _, label := range e.Labels {
			rows = append(rows, fmt.Sprintf("%s\t%s_%s\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0",
				label, e.Template.SourceID, e.Template.Chain))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	content := strings.Join(rows, "\n") + "\n"
	return &AuxFile{Name: doc.Name + "_templates.m8", Content: []byte(content)}
}

// restraintsCSV renders covalent bonds in Chai's contact-restraint table.
// Bonds touching a SMILES or multi-component CCD ligand cannot name their
// atoms in Chai; those are dropped with a warning, matching the tool's
// documented limitation.
func restraintsCSV(doc *document.Document) ([]byte, []document.Warning, error) {
	header := "chainA,res_idxA,chainB,res_idxB,connection_type,confidence," +
		"min_distance_angstrom,max_distance_angstrom,comment,restraint_id"

	var warnings []document.Warning
	lines := []string{header}
	for i, b := range doc.Bonds {
		ref1, ok1 := restraintRef(doc, b.First)
		ref2, ok2 := restraintRef(doc, b.Second)
		if !ok1 || !ok2 {
			warnings = append(warnings, document.Warning{
				Tool:    "chai",
				Feature: "bonded-atom-pairs",
				Message: fmt.Sprintf("restraint %d touches a ligand without addressable atoms, dropped", i),
			})
			continue
		}
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%s,contact,1.0,0.0,5.5,Covalent Bond,restraint_%d",
			b.First.Chain, ref1, b.Second.Chain, ref2, i))
	}
	if len(lines) == 1 {
		return nil, warnings, nil
	}
	return []byte(strings.Join(lines, "\n") + "\n"), warnings, nil
}

// restraintRef renders one bond endpoint as {residue}{index}@{atom}.
func restraintRef(doc *document.Document, a document.BondAtom) (string, bool) {
	e, _, ok := doc.EntityByLabel(a.Chain)
	if !ok || !e.IsPolymer() {
		return "", false
	}
	return fmt.Sprintf("%c%d@%s", e.Sequence[a.Residue-1], a.Residue, a.Atom), true
}

// sequenceHash is the uppercase-sequence digest used to name per-sequence
// MSA artifacts.
func sequenceHash(seq string) string {
	sum := sha256.Sum256([]byte(strings.ToUpper(seq)))
	return hex.EncodeToString(sum[:])
}
