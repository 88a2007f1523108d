// SPDX-License-Identifier: Apache-2.0

// Package template attaches structural templates to document entities. A
// template is matched to its target by global sequence alignment; only
// identically aligned positions make it into the final position map.
package template

import (
	"errors"
	"fmt"

	"github.com/trifoldproj/trifold/internal/align"
	"github.com/trifoldproj/trifold/internal/document"
	"github.com/trifoldproj/trifold/internal/structure"
)

var (
	// ErrInvalidChainReference marks a template chain that does not exist
	// in the source structure.
	ErrInvalidChainReference = errors.New("invalid chain reference")

	// ErrNoAlignableResidues marks a template whose alignment against the
	// target yields zero usable positions.
	ErrNoAlignableResidues = errors.New("no alignable residues")

	// ErrTargetAmbiguous marks an attachment without a target label when
	// the document has more than one candidate protein entity.
	ErrTargetAmbiguous = errors.New("ambiguous template target")
)

// Source is the structural input to template attachment: a parsed template
// structure plus the raw mmCIF text that is forwarded to predictors which
// accept templates verbatim.
type Source struct {
	Structure *structure.Structure
	MMCIF     string
}

// Attach resolves the template chain against the target entity and attaches
// the resulting position map to the entity. An empty targetLabel is allowed
// only when the document has exactly one protein entity. A second Attach for
// the same entity replaces the prior template (last-write-wins); callers
// treat that as deliberate re-assignment.
//
// Templates target the entity, not a single chain copy: attaching via any
// label of a homo-oligomeric entity applies to every copy, since all copies
// share geometry input.
func Attach(doc *document.Document, targetLabel string, src Source, templateChain string) (*document.Template, error) {
	entity, err := resolveTarget(doc, targetLabel)
	if err != nil {
		return nil, err
	}

	chain, ok := src.Structure.Chain(templateChain)
	if !ok {
		return nil, fmt.Errorf("%w: chain %q not found in template %q (has %v)",
			ErrInvalidChainReference, templateChain, src.Structure.ID, src.Structure.ChainIDs())
	}

	queryIdx, hitIdx := align.MapPositions(align.Global(entity.Sequence, chain.Sequence()))
	if len(queryIdx) == 0 {
		return nil, fmt.Errorf("%w: template %q chain %q against entity %q",
			ErrNoAlignableResidues, src.Structure.ID, templateChain, entity.Labels[0])
	}
	for _, q := range queryIdx {
		if q >= entity.Length() {
			return nil, fmt.Errorf("template position map references position %d past entity %q length %d",
				q+1, entity.Labels[0], entity.Length())
		}
	}

	tpl := &document.Template{
		SourceID:        src.Structure.ID,
		Chain:           templateChain,
		MMCIF:           src.MMCIF,
		QueryIndices:    queryIdx,
		TemplateIndices: hitIdx,
	}
	entity.Template = tpl
	return tpl, nil
}

// AttachAll attaches one template per (source, chain) pair. Targets must
// either match the sources one-to-one, be a single label broadcast to every
// source, or be empty when the document has exactly one protein entity.
func AttachAll(doc *document.Document, targets []string, sources []Source, chains []string) error {
	if len(sources) != len(chains) {
		return fmt.Errorf("got %d template sources but %d template chains", len(sources), len(chains))
	}
	switch {
	case len(targets) == 0:
		targets = make([]string, len(sources))
	case len(targets) == 1 && len(sources) > 1:
		t := targets[0]
		targets = make([]string, len(sources))
		for i := range targets {
			targets[i] = t
		}
	case len(targets) != len(sources):
		return fmt.Errorf("got %d template targets but %d template sources", len(targets), len(sources))
	}

	for i := range sources {
		if _, err := Attach(doc, targets[i], sources[i], chains[i]); err != nil {
			return err
		}
	}
	return nil
}

func resolveTarget(doc *document.Document, label string) (*document.Entity, error) {
	if label != "" {
		entity, _, ok := doc.EntityByLabel(label)
		if !ok {
			return nil, fmt.Errorf("%w: no entity owns chain label %q", ErrInvalidChainReference, label)
		}
		if entity.Kind != document.KindProtein {
			return nil, fmt.Errorf("templates only attach to protein entities, %q is %s",
				label, entity.Kind)
		}
		return entity, nil
	}

	var candidate *document.Entity
	for _, e := range doc.Entities {
		if e.Kind != document.KindProtein {
			continue
		}
		if candidate != nil {
			return nil, fmt.Errorf("%w: multiple protein entities, specify a target label",
				ErrTargetAmbiguous)
		}
		candidate = e
	}
	if candidate == nil {
		return nil, fmt.Errorf("%w: document has no protein entity", ErrInvalidChainReference)
	}
	return candidate, nil
}
