// SPDX-License-Identifier: Apache-2.0

// Package msa merges externally retrieved alignment rows into document
// entities. Unpaired rows are always unioned in; paired rows follow an
// all-or-nothing rule: the document-level paired flag is set only when
// every entity received paired rows in the same batch, and partial pairing
// degrades to unpaired-only with a warning.
package msa

import (
	"errors"
	"fmt"

	"github.com/trifoldproj/trifold/internal/document"
)

var (
	// ErrInconsistentPairing marks a batch whose paired rows disagree in
	// row count across entities.
	ErrInconsistentPairing = errors.New("inconsistent msa pairing")

	// ErrAlignmentExists marks an attempt to augment an entity whose
	// alignment was supplied with the input document.
	ErrAlignmentExists = errors.New("entity already has a user-provided alignment")
)

// Rows is the alignment data retrieved for one entity.
type Rows struct {
	Unpaired []string
	Paired   []string
}

// Batch is one augmentation invocation: alignment rows keyed by entity
// label.
type Batch struct {
	// Force permits overwriting user-provided alignments.
	Force bool

	rows map[string]Rows
}

// NewBatch creates an empty augmentation batch.
func NewBatch() *Batch {
	return &Batch{rows: make(map[string]Rows)}
}

// Add stages alignment rows for the entity owning label.
func (b *Batch) Add(label string, rows Rows) *Batch {
	b.rows[label] = rows
	return b
}

// Apply merges the batch into the document. It validates paired-row
// consistency first, then appends unpaired rows with exact-duplicate
// suppression. The returned warnings include the partial-pairing
// degradation signal when applicable.
func (b *Batch) Apply(doc *document.Document) ([]document.Warning, error) {
	type staged struct {
		entity *document.Entity
		rows   Rows
	}

	var units []staged
	pairedCount := -1
	for label, rows := range b.rows {
		entity, _, ok := doc.EntityByLabel(label)
		if !ok {
			return nil, fmt.Errorf("msa batch references unknown chain label %q", label)
		}
		if entity.Alignment != nil && entity.Alignment.UserProvided && !b.Force {
			return nil, fmt.Errorf("%w: entity %q", ErrAlignmentExists, label)
		}
		if len(rows.Paired) > 0 {
			if pairedCount >= 0 && pairedCount != len(rows.Paired) {
				return nil, fmt.Errorf("%w: entity %q has %d paired rows, expected %d",
					ErrInconsistentPairing, label, len(rows.Paired), pairedCount)
			}
			pairedCount = len(rows.Paired)
		}
		units = append(units, staged{entity: entity, rows: rows})
	}

	var warnings []document.Warning

	// Paired rows only mean anything when every entity in the document is
	// covered by this batch. A partial pairing is dropped, not failed;
	// the predictors cannot use it. Flagged for review rather than fixed:
	// this mirrors the observable behavior of the source pipelines.
	pairedEntities := make(map[*document.Entity]bool)
	for _, u := range units {
		if len(u.rows.Paired) > 0 {
			pairedEntities[u.entity] = true
		}
	}
	fullyPaired := len(pairedEntities) > 0
	for _, e := range doc.Entities {
		if e.IsPolymer() && !pairedEntities[e] {
			fullyPaired = false
		}
	}
	if !fullyPaired && len(pairedEntities) > 0 {
		warnings = append(warnings, document.Warning{
			Feature: "paired-msa",
			Message: "partial pairing dropped: not every entity received paired rows",
		})
	}

	for _, u := range units {
		if u.entity.Alignment == nil || (u.entity.Alignment.UserProvided && b.Force) {
			u.entity.Alignment = &document.Alignment{}
		}
		u.entity.Alignment.Unpaired = appendUnique(u.entity.Alignment.Unpaired, u.rows.Unpaired)
		if fullyPaired {
			u.entity.Alignment.Paired = appendUnique(u.entity.Alignment.Paired, u.rows.Paired)
		}
	}

	if len(pairedEntities) > 0 {
		doc.PairedAvailable = fullyPaired
	}
	return warnings, nil
}

// appendUnique appends rows not already present, comparing by exact string
// match.
func appendUnique(dst, rows []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, r := range dst {
		seen[r] = true
	}
	for _, r := range rows {
		if !seen[r] {
			dst = append(dst, r)
			seen[r] = true
		}
	}
	return dst
}
