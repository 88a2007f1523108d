// SPDX-License-Identifier: Apache-2.0

package document

import "fmt"

// The global coordinate space assigns every canonical position an absolute
// 0-based index: offset of the owning entity plus the 1-based local
// position minus one. Offsets are derived from entity order and lengths on
// every call; they are never cached across a mutation.

// UniqueResidueCount is the total number of canonical positions, counting
// each homo-oligomeric entity once regardless of how many labels it
// carries.
func (d *Document) UniqueResidueCount() int {
	total := 0
	for _, e := range d.Entities {
		total += e.Length()
	}
	return total
}

// ModelResidueCount is the number of residue-wise positions a predicted
// structure of this document contains: every chain label contributes a full
// copy of its entity. Equal to UniqueResidueCount when no entity is
// homo-oligomeric.
func (d *Document) ModelResidueCount() int {
	total := 0
	for _, e := range d.Entities {
		total += len(e.Labels) * e.Length()
	}
	return total
}

// Offset returns the absolute index of the first position of the entity at
// entityIdx.
func (d *Document) Offset(entityIdx int) int {
	off := 0
	for i := 0; i < entityIdx; i++ {
		off += d.Entities[i].Length()
	}
	return off
}

// AbsoluteIndex maps (entityIdx, localPos) with a 1-based local position to
// the absolute 0-based global index.
func (d *Document) AbsoluteIndex(entityIdx, localPos int) (int, error) {
	if entityIdx < 0 || entityIdx >= len(d.Entities) {
		return 0, fmt.Errorf("entity index %d out of range", entityIdx)
	}
	e := d.Entities[entityIdx]
	if localPos < 1 || localPos > e.Length() {
		return 0, fmt.Errorf("position %d out of range for entity %q (length %d)",
			localPos, e.Labels[0], e.Length())
	}
	return d.Offset(entityIdx) + localPos - 1, nil
}

// Locate is the inverse of AbsoluteIndex: it maps an absolute index back to
// (entityIdx, localPos).
func (d *Document) Locate(abs int) (entityIdx, localPos int, err error) {
	if abs < 0 {
		return 0, 0, fmt.Errorf("absolute index %d out of range", abs)
	}
	off := 0
	for i, e := range d.Entities {
		if abs < off+e.Length() {
			return i, abs - off + 1, nil
		}
		off += e.Length()
	}
	return 0, 0, fmt.Errorf("absolute index %d out of range (total %d)", abs, off)
}

// ChainOrder returns every chain label in model order: entities in document
// order, labels in declaration order within each entity. This is the order
// predicted structures list their chains in.
func (d *Document) ChainOrder() []string {
	var labels []string
	for _, e := range d.Entities {
		labels = append(labels, e.Labels...)
	}
	return labels
}
