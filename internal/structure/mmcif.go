// SPDX-License-Identifier: Apache-2.0

// Package structure reads predictor structure artifacts (mmCIF) into a
// chain/residue/atom hierarchy. It covers exactly what the pipeline needs:
// per-chain sequences for template alignment, and token enumeration plus
// per-atom confidence values for output normalization.
package structure

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Atom is one atom record. BIso carries the per-atom confidence value that
// all three predictors write into the B-factor column.
type Atom struct {
	Name    string
	Element string
	BIso    float64
}

// Residue is one residue (or one ligand component) of a chain.
type Residue struct {
	Name  string
	SeqID int
	Het   bool
	Atoms []Atom
}

// Chain is an ordered run of residues sharing one chain identifier.
type Chain struct {
	ID       string
	Residues []Residue
}

// Structure is one parsed structure artifact.
type Structure struct {
	ID     string
	Chains []Chain
}

// ReadFile parses the mmCIF file at path.
func ReadFile(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	id := strings.TrimSuffix(strings.TrimSuffix(pathBase(path), ".cif"), ".mmcif")
	return Read(f, id)
}

// Read parses mmCIF from r. Only the atom_site loop is interpreted; all
// other categories are skipped.
func Read(r io.Reader, id string) (*Structure, error) {
	s := &Structure{ID: id}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var fields []string
	inHeader, inRows := false, false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "loop_":
			fields = nil
			inHeader = true
			inRows = false
		case strings.HasPrefix(line, "_atom_site.") && inHeader:
			fields = append(fields, strings.TrimPrefix(line, "_atom_site."))
		case strings.HasPrefix(line, "_") || strings.HasPrefix(line, "#") || line == "":
			if inRows {
				inRows = false
			}
			if inHeader && !strings.HasPrefix(line, "_atom_site.") {
				inHeader = len(fields) == 0
			}
		default:
			if len(fields) > 0 {
				inHeader = false
				inRows = true
				if err := s.addAtomRow(fields, line); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(s.Chains) == 0 {
		return nil, fmt.Errorf("structure %q: no atom_site records found", id)
	}
	return s, nil
}

func (s *Structure) addAtomRow(fields []string, line string) error {
	cols := strings.Fields(line)
	if len(cols) != len(fields) {
		return fmt.Errorf("structure %q: atom_site row has %d columns, header has %d",
			s.ID, len(cols), len(fields))
	}
	row := make(map[string]string, len(fields))
	for i, f := range fields {
		row[f] = cols[i]
	}

	// Prefer author identifiers, matching what the predictors write.
	chainID := pick(row, "auth_asym_id", "label_asym_id")
	compID := pick(row, "auth_comp_id", "label_comp_id")
	seqStr := pick(row, "auth_seq_id", "label_seq_id")
	seqID, err := strconv.Atoi(seqStr)
	if err != nil {
		// Ligands sometimes carry "." in label_seq_id; fold them into one
		// residue per component instance.
		seqID = 0
	}

	var biso float64
	if v, ok := row["B_iso_or_equiv"]; ok && v != "." && v != "?" {
		if biso, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("structure %q: bad B_iso value %q", s.ID, v)
		}
	}

	atom := Atom{
		Name:    strings.Trim(pick(row, "label_atom_id", "auth_atom_id"), `"`),
		Element: row["type_symbol"],
		BIso:    biso,
	}
	het := row["group_PDB"] == "HETATM"

	chain := s.chainFor(chainID)
	last := len(chain.Residues) - 1
	if last < 0 || chain.Residues[last].SeqID != seqID || chain.Residues[last].Name != compID {
		chain.Residues = append(chain.Residues, Residue{Name: compID, SeqID: seqID, Het: het})
		last++
	}
	chain.Residues[last].Atoms = append(chain.Residues[last].Atoms, atom)
	return nil
}

func (s *Structure) chainFor(id string) *Chain {
	for i := range s.Chains {
		if s.Chains[i].ID == id {
			return &s.Chains[i]
		}
	}
	s.Chains = append(s.Chains, Chain{ID: id})
	return &s.Chains[len(s.Chains)-1]
}

// Chain returns the chain with the given identifier.
func (s *Structure) Chain(id string) (*Chain, bool) {
	for i := range s.Chains {
		if s.Chains[i].ID == id {
			return &s.Chains[i], true
		}
	}
	return nil, false
}

// ChainIDs lists chain identifiers in file order.
func (s *Structure) ChainIDs() []string {
	ids := make([]string, len(s.Chains))
	for i, c := range s.Chains {
		ids[i] = c.ID
	}
	return ids
}

// Sequence renders the chain as one-letter residue codes. Residues without
// a standard code become 'X'.
func (c *Chain) Sequence() string {
	var b strings.Builder
	for _, r := range c.Residues {
		b.WriteByte(oneLetter(r.Name))
	}
	return b.String()
}

// Token is one position of the raw index space the predictors score
// against: standard polymer residues contribute one token, ligand and
// modified (HETATM) residues contribute one token per atom.
type Token struct {
	Chain        string
	ResidueIndex int
	Atom         int
}

// Tokens enumerates the raw index space of the structure in file order.
func (s *Structure) Tokens() []Token {
	var toks []Token
	for _, c := range s.Chains {
		for ri, r := range c.Residues {
			if r.Het || !isStandard(r.Name) {
				for ai := range r.Atoms {
					toks = append(toks, Token{Chain: c.ID, ResidueIndex: ri, Atom: ai})
				}
			} else {
				toks = append(toks, Token{Chain: c.ID, ResidueIndex: ri})
			}
		}
	}
	return toks
}

// TokenSizes returns the atom count behind each token, aligned with
// Tokens. Per-atom score arrays collapse to token space with these.
func (s *Structure) TokenSizes() []int {
	var sizes []int
	for _, c := range s.Chains {
		for _, r := range c.Residues {
			if r.Het || !isStandard(r.Name) {
				for range r.Atoms {
					sizes = append(sizes, 1)
				}
			} else {
				sizes = append(sizes, len(r.Atoms))
			}
		}
	}
	return sizes
}

// Confidences returns the per-token confidence values taken from the
// B-factor column. For single-token residues the value is the mean over
// the residue's atoms.
func (s *Structure) Confidences() []float64 {
	var vals []float64
	for _, c := range s.Chains {
		for _, r := range c.Residues {
			if r.Het || !isStandard(r.Name) {
				for _, a := range r.Atoms {
					vals = append(vals, a.BIso)
				}
			} else {
				sum := 0.0
				for _, a := range r.Atoms {
					sum += a.BIso
				}
				if len(r.Atoms) > 0 {
					sum /= float64(len(r.Atoms))
				}
				vals = append(vals, sum)
			}
		}
	}
	return vals
}

var threeToOne = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLN": 'Q', "GLU": 'E', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"DA": 'A', "DC": 'C', "DG": 'G', "DT": 'T',
	"A": 'A', "C": 'C', "G": 'G', "U": 'U',
}

func oneLetter(comp string) byte {
	if b, ok := threeToOne[comp]; ok {
		return b
	}
	return 'X'
}

func isStandard(comp string) bool {
	_, ok := threeToOne[comp]
	return ok
}

func pick(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != "." && v != "?" {
			return v
		}
	}
	return ""
}

func pathBase(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
