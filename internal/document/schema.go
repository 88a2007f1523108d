// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

// docSchema is the CUE schema for the canonical JSON form. It guards field
// shapes before any structural validation runs; invariant checks that need
// cross-field knowledge (label collisions, position ranges) live in
// Document.Validate.
const docSchema = `
#Modification: {
	ptmType?:          string
	ptmPosition?:      int & >0
	modificationType?: string
	basePosition?:     int & >0
}

#Template: {
	mmcif:           string
	queryIndices:    [...int & >=0]
	templateIndices: [...int & >=0]
}

#Polymer: {
	id:             string | [...string]
	sequence:       string
	modifications?: [...#Modification]
	unpairedMsa?:   string
	pairedMsa?:     string
	templates?:     [...#Template]
}

#Ligand: {
	id:        string | [...string]
	ccdCodes?: [...string]
	smiles?:   string
}

#Document: {
	name:        string
	dialect?:    string
	version?:    int
	modelSeeds?: [...int]
	sequences: [...{
		protein?: #Polymer
		dna?:     #Polymer
		rna?:     #Polymer
		ligand?:  #Ligand
	}]
	bondedAtomPairs?: [...[...[...]]]
}
`

// validateSchema checks raw JSON against the document schema. Errors wrap
// ErrMalformedDocument.
func validateSchema(data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(docSchema).LookupPath(cue.ParsePath("#Document"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("document schema is broken: %w", err)
	}

	expr, err := cuejson.Extract("document.json", data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	val := ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if err := schema.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return nil
}
