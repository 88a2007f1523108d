// SPDX-License-Identifier: Apache-2.0

package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The on-disk form of a Document is the AlphaFold3-style job JSON: a
// "sequences" array of single-key objects keyed by entity kind, model
// seeds, and dialect/version tags. Decode accepts that form, Encode
// reproduces it.

type wireDocument struct {
	Name            string                       `json:"name"`
	ModelSeeds      []int                        `json:"modelSeeds"`
	Sequences       []map[string]json.RawMessage `json:"sequences"`
	BondedAtomPairs [][]wireBondAtom             `json:"bondedAtomPairs,omitempty"`
	Dialect         string                       `json:"dialect,omitempty"`
	Version         int                          `json:"version,omitempty"`
}

// idList accepts "A" and ["A", "B"] interchangeably and writes back the
// shortest form.
type idList []string

func (l *idList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = idList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("id must be a string or a list of strings")
	}
	*l = idList(many)
	return nil
}

func (l idList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]string(l))
}

// wireBondAtom is the [chainId, residueIdx, atomName] triple used by
// bondedAtomPairs.
type wireBondAtom struct {
	Chain   string
	Residue int
	Atom    string
}

func (a *wireBondAtom) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("bonded atom must be [chainId, residueIdx, atomName]")
	}
	if err := json.Unmarshal(parts[0], &a.Chain); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &a.Residue); err != nil {
		return err
	}
	return json.Unmarshal(parts[2], &a.Atom)
}

func (a wireBondAtom) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{a.Chain, a.Residue, a.Atom})
}

type wireModification struct {
	PtmType      string `json:"ptmType,omitempty"`
	PtmPosition  int    `json:"ptmPosition,omitempty"`
	ModType      string `json:"modificationType,omitempty"`
	BasePosition int    `json:"basePosition,omitempty"`
}

type wireTemplate struct {
	MMCIF           string `json:"mmcif"`
	QueryIndices    []int  `json:"queryIndices"`
	TemplateIndices []int  `json:"templateIndices"`
}

type wirePolymer struct {
	ID            idList             `json:"id"`
	Sequence      string             `json:"sequence"`
	Modifications []wireModification `json:"modifications,omitempty"`
	UnpairedMSA   *string            `json:"unpairedMsa,omitempty"`
	PairedMSA     *string            `json:"pairedMsa,omitempty"`
	Templates     []wireTemplate     `json:"templates,omitempty"`
}

type wireLigand struct {
	ID       idList   `json:"id"`
	CCDCodes []string `json:"ccdCodes,omitempty"`
	Smiles   string   `json:"smiles,omitempty"`
}

// Decode parses and validates the canonical JSON form. Schema violations
// and structural invariant violations both wrap ErrMalformedDocument.
func Decode(data []byte) (*Document, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	doc := &Document{
		Name:    wire.Name,
		Dialect: wire.Dialect,
		Version: wire.Version,
		Seeds:   wire.ModelSeeds,
	}

	for i, seq := range wire.Sequences {
		if len(seq) != 1 {
			return nil, fmt.Errorf("%w: sequences[%d] must have exactly one entity kind key",
				ErrMalformedDocument, i)
		}
		for kind, raw := range seq {
			entity, err := decodeEntity(Kind(kind), raw)
			if err != nil {
				return nil, fmt.Errorf("%w: sequences[%d]: %v", ErrMalformedDocument, i, err)
			}
			doc.Entities = append(doc.Entities, entity)
		}
	}

	for _, pair := range wire.BondedAtomPairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: bonded atom pair must have exactly two atoms",
				ErrMalformedDocument)
		}
		doc.Bonds = append(doc.Bonds, Bond{
			First:  BondAtom(pair[0]),
			Second: BondAtom(pair[1]),
		})
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeEntity(kind Kind, raw json.RawMessage) (*Entity, error) {
	switch kind {
	case KindProtein, KindDNA, KindRNA:
		var p wirePolymer
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		e := &Entity{
			Labels:   append([]string(nil), p.ID...),
			Kind:     kind,
			Sequence: p.Sequence,
		}
		for _, m := range p.Modifications {
			mod := Modification{Position: m.PtmPosition, CCD: m.PtmType}
			if m.ModType != "" {
				mod = Modification{Position: m.BasePosition, CCD: m.ModType}
			}
			e.Modifications = append(e.Modifications, mod)
		}
		if p.UnpairedMSA != nil || p.PairedMSA != nil {
			e.Alignment = &Alignment{UserProvided: true}
			if p.UnpairedMSA != nil {
				e.Alignment.Unpaired = a3mSplit(*p.UnpairedMSA)
			}
			if p.PairedMSA != nil {
				e.Alignment.Paired = a3mSplit(*p.PairedMSA)
			}
		}
		if len(p.Templates) > 0 {
			// One template per entity; the canonical model keeps the last.
			t := p.Templates[len(p.Templates)-1]
			e.Template = &Template{
				MMCIF:           t.MMCIF,
				QueryIndices:    append([]int(nil), t.QueryIndices...),
				TemplateIndices: append([]int(nil), t.TemplateIndices...),
			}
		}
		return e, nil
	case KindLigand:
		var l wireLigand
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, err
		}
		return &Entity{
			Labels:   append([]string(nil), l.ID...),
			Kind:     KindLigand,
			CCDCodes: l.CCDCodes,
			Smiles:   l.Smiles,
		}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Encode writes the document back to its canonical JSON form.
func Encode(doc *Document) ([]byte, error) {
	wire := wireDocument{
		Name:       doc.Name,
		ModelSeeds: doc.Seeds,
		Dialect:    doc.Dialect,
		Version:    doc.Version,
	}

	for _, e := range doc.Entities {
		raw, err := encodeEntity(e)
		if err != nil {
			return nil, err
		}
		wire.Sequences = append(wire.Sequences, map[string]json.RawMessage{string(e.Kind): raw})
	}

	for _, b := range doc.Bonds {
		wire.BondedAtomPairs = append(wire.BondedAtomPairs, []wireBondAtom{
			wireBondAtom(b.First), wireBondAtom(b.Second),
		})
	}

	return json.MarshalIndent(wire, "", "  ")
}

func encodeEntity(e *Entity) (json.RawMessage, error) {
	if e.Kind == KindLigand {
		return json.Marshal(wireLigand{
			ID:       idList(e.Labels),
			CCDCodes: e.CCDCodes,
			Smiles:   e.Smiles,
		})
	}

	p := wirePolymer{
		ID:       idList(e.Labels),
		Sequence: e.Sequence,
	}
	for _, m := range e.Modifications {
		if e.Kind == KindProtein {
			p.Modifications = append(p.Modifications, wireModification{
				PtmType: m.CCD, PtmPosition: m.Position,
			})
		} else {
			p.Modifications = append(p.Modifications, wireModification{
				ModType: m.CCD, BasePosition: m.Position,
			})
		}
	}
	if e.Alignment != nil {
		unpaired := a3mJoin(e.Alignment.Unpaired)
		p.UnpairedMSA = &unpaired
		paired := a3mJoin(e.Alignment.Paired)
		p.PairedMSA = &paired
	}
	if e.Template != nil {
		p.Templates = []wireTemplate{{
			MMCIF:           e.Template.MMCIF,
			QueryIndices:    e.Template.QueryIndices,
			TemplateIndices: e.Template.TemplateIndices,
		}}
	}
	return json.Marshal(p)
}

// a3mSplit extracts the aligned sequence rows from A3M text, dropping
// header lines.
func a3mSplit(text string) []string {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ">") || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

// a3mJoin renders rows back to A3M text with synthetic headers. The first
// row is conventionally the query.
func a3mJoin(rows []string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	for i, row := range rows {
		if i == 0 {
			b.WriteString(">query\n")
		} else {
			fmt.Fprintf(&b, ">seq-%d\n", i)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return b.String()
}
