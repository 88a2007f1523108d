// SPDX-License-Identifier: Apache-2.0

// Package document holds the canonical in-memory representation of a
// prediction job: the complex to model, its chains, modifications, seeds
// and any attached alignment or template data. All three predictor input
// schemas are projections of this one model.
package document

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument is the root cause for every structural validation
// failure of a Document. Wrapped errors name the offending entity and
// position so callers can report precisely.
var ErrMalformedDocument = errors.New("malformed document")

// Kind identifies what an entity is.
type Kind string

const (
	KindProtein Kind = "protein"
	KindDNA     Kind = "dna"
	KindRNA     Kind = "rna"
	KindLigand  Kind = "ligand"
)

// Modification is a covalent modification of one polymer position.
// Position is 1-based and local to the owning entity.
type Modification struct {
	Position int
	CCD      string
}

// Alignment holds MSA rows attached to an entity. Paired rows, when
// present, line up row-for-row with the paired rows of every other entity
// that took part in the same pairing batch.
type Alignment struct {
	Unpaired []string
	Paired   []string

	// UserProvided marks alignments that came in with the input document
	// rather than from an augmentation batch. The augmenter refuses to
	// overwrite these without an explicit override.
	UserProvided bool
}

// Template is a structural fragment attached to an entity. QueryIndices and
// TemplateIndices are parallel 0-based position lists; gapped or mismatched
// alignment columns never appear in them.
type Template struct {
	SourceID        string
	Chain           string
	MMCIF           string
	QueryIndices    []int
	TemplateIndices []int
}

// BondAtom addresses one atom for a crosslink: the chain label, the 1-based
// residue index within that chain, and the atom name.
type BondAtom struct {
	Chain   string
	Residue int
	Atom    string
}

// Bond is a covalent crosslink between two atoms.
type Bond struct {
	First  BondAtom
	Second BondAtom
}

// Warning is a non-fatal signal surfaced to the caller instead of an error,
// e.g. a silently dropped feature or an out-of-bounds score value.
type Warning struct {
	Tool    string `json:"tool"`
	Feature string `json:"feature"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Tool == "" {
		return fmt.Sprintf("%s: %s", w.Feature, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Tool, w.Feature, w.Message)
}

// Entity is one chain or ligand. A homo-oligomer is a single Entity with
// more than one label; the sequence is stored once and the per-tool
// projectors expand or collapse copies as each schema requires.
type Entity struct {
	Labels        []string
	Kind          Kind
	Sequence      string
	CCDCodes      []string
	Smiles        string
	Modifications []Modification
	Alignment     *Alignment
	Template      *Template
}

// Length returns the number of canonical positions one copy of the entity
// occupies: residues for polymers, one per CCD code for CCD ligands, and a
// single position for a SMILES ligand.
func (e *Entity) Length() int {
	if e.Kind == KindLigand {
		if len(e.CCDCodes) > 0 {
			return len(e.CCDCodes)
		}
		if e.Smiles != "" {
			return 1
		}
		return 0
	}
	return len(e.Sequence)
}

// IsPolymer reports whether the entity is a protein or nucleic acid chain.
func (e *Entity) IsPolymer() bool {
	return e.Kind == KindProtein || e.Kind == KindDNA || e.Kind == KindRNA
}

// Document is the canonical complex description. Entity order is the
// authoritative global-offset order and is never changed after
// construction.
type Document struct {
	Name     string
	Dialect  string
	Version  int
	Seeds    []int
	Entities []*Entity
	Bonds    []Bond

	// PairedAvailable is true only when every entity received paired MSA
	// rows in one augmentation batch. Partial pairing leaves it false.
	PairedAvailable bool
}

// EntityByLabel returns the entity owning the given chain label and its
// index in the entity list.
func (d *Document) EntityByLabel(label string) (*Entity, int, bool) {
	for i, e := range d.Entities {
		for _, l := range e.Labels {
			if l == label {
				return e, i, true
			}
		}
	}
	return nil, 0, false
}

// Validate checks the structural invariants of the document. It returns an
// error wrapping ErrMalformedDocument naming the first violation found.
func (d *Document) Validate() error {
	seen := make(map[string]int, len(d.Entities))
	for i, e := range d.Entities {
		if len(e.Labels) == 0 {
			return fmt.Errorf("%w: entity %d has no chain labels", ErrMalformedDocument, i)
		}
		for _, l := range e.Labels {
			if prev, ok := seen[l]; ok {
				return fmt.Errorf("%w: chain label %q used by entities %d and %d",
					ErrMalformedDocument, l, prev, i)
			}
			seen[l] = i
		}
		switch e.Kind {
		case KindProtein, KindDNA, KindRNA:
			if e.Sequence == "" {
				return fmt.Errorf("%w: entity %q has an empty sequence",
					ErrMalformedDocument, e.Labels[0])
			}
		case KindLigand:
			if (len(e.CCDCodes) == 0) == (e.Smiles == "") {
				return fmt.Errorf("%w: ligand %q must have exactly one of ccdCodes or smiles",
					ErrMalformedDocument, e.Labels[0])
			}
		default:
			return fmt.Errorf("%w: entity %q has unknown kind %q",
				ErrMalformedDocument, e.Labels[0], e.Kind)
		}
		for _, m := range e.Modifications {
			if m.Position < 1 || m.Position > e.Length() {
				return fmt.Errorf("%w: entity %q: modification position %d outside [1, %d]",
					ErrMalformedDocument, e.Labels[0], m.Position, e.Length())
			}
		}
	}
	for _, b := range d.Bonds {
		for _, a := range []BondAtom{b.First, b.Second} {
			e, _, ok := d.EntityByLabel(a.Chain)
			if !ok {
				return fmt.Errorf("%w: bond references unknown chain %q",
					ErrMalformedDocument, a.Chain)
			}
			if a.Residue < 1 || a.Residue > e.Length() {
				return fmt.Errorf("%w: bond position %d out of range for entity %q (length %d)",
					ErrMalformedDocument, a.Residue, a.Chain, e.Length())
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the document. Projectors and the normalizer
// operate on a frozen snapshot; callers clone before handing the document
// to concurrent consumers.
func (d *Document) Clone() *Document {
	out := &Document{
		Name:            d.Name,
		Dialect:         d.Dialect,
		Version:         d.Version,
		Seeds:           append([]int(nil), d.Seeds...),
		Bonds:           append([]Bond(nil), d.Bonds...),
		PairedAvailable: d.PairedAvailable,
	}
	out.Entities = make([]*Entity, len(d.Entities))
	for i, e := range d.Entities {
		ce := &Entity{
			Labels:        append([]string(nil), e.Labels...),
			Kind:          e.Kind,
			Sequence:      e.Sequence,
			CCDCodes:      append([]string(nil), e.CCDCodes...),
			Smiles:        e.Smiles,
			Modifications: append([]Modification(nil), e.Modifications...),
		}
		if e.Alignment != nil {
			ce.Alignment = &Alignment{
				Unpaired:     append([]string(nil), e.Alignment.Unpaired...),
				Paired:       append([]string(nil), e.Alignment.Paired...),
				UserProvided: e.Alignment.UserProvided,
			}
		}
		if e.Template != nil {
			ct := *e.Template
			ct.QueryIndices = append([]int(nil), e.Template.QueryIndices...)
			ct.TemplateIndices = append([]int(nil), e.Template.TemplateIndices...)
			ce.Template = &ct
		}
		out.Entities[i] = ce
	}
	return out
}
