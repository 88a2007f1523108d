// SPDX-License-Identifier: Apache-2.0

// Package project turns one canonical document into the input artifact set
// of each predictor. Projectors are pure: they read a frozen document
// snapshot and produce value objects; writing files and launching
// predictors belongs to the external runner.
package project

import (
	"errors"
	"fmt"

	"github.com/trifoldproj/trifold/internal/document"
)

// ErrUnsupportedFeature marks a document feature that a tool can neither
// express nor silently drop.
var ErrUnsupportedFeature = errors.New("unsupported feature")

func unsupported(tool, feature string) error {
	return fmt.Errorf("%w: %s cannot express %s", ErrUnsupportedFeature, tool, feature)
}

// Job is one predictor invocation input: one (tool, seed) unit.
type Job struct {
	Seed     int
	Filename string
	Content  []byte
}

// AuxFile is a supporting artifact shared by every job of a projection,
// e.g. an MSA file referenced from the job document.
type AuxFile struct {
	Name    string
	Content []byte
}

// Projection is the full input artifact set for one tool.
type Projection struct {
	Tool     string
	Jobs     []Job
	Aux      []AuxFile
	Warnings []document.Warning
}

// Projector maps a canonical document to one tool's input schema.
type Projector interface {
	Tool() string
	Project(doc *document.Document) (Projection, error)
}

// All returns the three registered projectors in fixed order.
func All() []Projector {
	return []Projector{NewAlphaFold(), NewBoltz(), NewChai()}
}

// ForTool returns the projector for the named tool.
func ForTool(name string) (Projector, error) {
	for _, p := range All() {
		if p.Tool() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

// Result is the outcome of projecting one tool; either Projection or Err
// is meaningful. A failed tool never blocks the others.
type Result struct {
	Tool       string
	Projection Projection
	Err        error
}

// ProjectAll runs each projector over its own snapshot of the document
// and reports per-tool outcomes independently. With no explicit projectors
// all three registered ones run.
func ProjectAll(doc *document.Document, projectors ...Projector) []Result {
	if len(projectors) == 0 {
		projectors = All()
	}
	results := make([]Result, 0, len(projectors))
	for _, p := range projectors {
		proj, err := p.Project(doc.Clone())
		results = append(results, Result{Tool: p.Tool(), Projection: proj, Err: err})
	}
	return results
}

// pairedUniversal reports whether every polymer entity carries at least one
// paired alignment row. Tools that accept paired MSAs only do so when the
// pairing covers the whole complex.
func pairedUniversal(doc *document.Document) bool {
	any := false
	for _, e := range doc.Entities {
		if !e.IsPolymer() {
			continue
		}
		if e.Alignment == nil || len(e.Alignment.Paired) == 0 {
			return false
		}
		any = true
	}
	return any
}

// seedsOrDefault returns the document seeds, or the conventional single
// default seed when none were declared.
func seedsOrDefault(doc *document.Document) []int {
	if len(doc.Seeds) > 0 {
		return doc.Seeds
	}
	return []int{42}
}
