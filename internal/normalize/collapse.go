// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"fmt"

	"github.com/trifoldproj/trifold/internal/structure"
)

// CollapseMap is the explicit, reversible mapping between the raw index
// space a predictor scores against (one entry per residue, but one per
// atom for ligands and modified residues) and the residue-wise space the
// normalized result uses. Keeping it a first-class value lets the
// collapse be tested without any file parsing.
type CollapseMap struct {
	groups [][]int
}

// CollapseFromSizes builds a map from per-residue raw-entry counts:
// a standard residue contributes 1, a modified residue or ligand
// component its atom count.
func CollapseFromSizes(sizes []int) CollapseMap {
	var m CollapseMap
	raw := 0
	for _, n := range sizes {
		group := make([]int, 0, n)
		for k := 0; k < n; k++ {
			group = append(group, raw)
			raw++
		}
		m.groups = append(m.groups, group)
	}
	return m
}

// CollapseFromTokens groups a structure's token stream by residue.
func CollapseFromTokens(tokens []structure.Token) CollapseMap {
	var m CollapseMap
	for i, tok := range tokens {
		n := len(m.groups)
		if n == 0 || tokens[i-1].Chain != tok.Chain || tokens[i-1].ResidueIndex != tok.ResidueIndex {
			m.groups = append(m.groups, []int{i})
		} else {
			m.groups[n-1] = append(m.groups[n-1], i)
		}
	}
	return m
}

// RawLen is the size of the raw index space.
func (m CollapseMap) RawLen() int {
	n := 0
	for _, g := range m.groups {
		n += len(g)
	}
	return n
}

// ResidueLen is the size of the collapsed residue-wise space.
func (m CollapseMap) ResidueLen() int {
	return len(m.groups)
}

// Raw returns the raw indices backing one residue.
func (m CollapseMap) Raw(residue int) []int {
	return m.groups[residue]
}

// Residue maps a raw index back to its residue.
func (m CollapseMap) Residue(raw int) (int, error) {
	for ri, g := range m.groups {
		for _, r := range g {
			if r == raw {
				return ri, nil
			}
		}
	}
	return 0, fmt.Errorf("raw index %d not covered by collapse map", raw)
}

// CollapseMatrix reduces a raw-space square matrix to residue space. Each
// residue block is replaced by its arithmetic mean, rows and columns
// independently, so one representative value remains per residue pair.
func (m CollapseMap) CollapseMatrix(mat [][]float64) [][]float64 {
	out := make([][]float64, len(m.groups))
	for i, rows := range m.groups {
		out[i] = make([]float64, len(m.groups))
		for j, cols := range m.groups {
			sum := 0.0
			for _, r := range rows {
				for _, c := range cols {
					sum += mat[r][c]
				}
			}
			out[i][j] = sum / float64(len(rows)*len(cols))
		}
	}
	return out
}

// CollapseVector reduces a raw-space array to residue space by per-group
// means.
func (m CollapseMap) CollapseVector(v []float64) []float64 {
	out := make([]float64, len(m.groups))
	for i, g := range m.groups {
		sum := 0.0
		for _, r := range g {
			sum += v[r]
		}
		out[i] = sum / float64(len(g))
	}
	return out
}
