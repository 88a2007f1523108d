// SPDX-License-Identifier: Apache-2.0

package project

import (
	"fmt"

	"github.com/trifoldproj/trifold/internal/document"
)

// AlphaFold projects the canonical document into the AlphaFold3 job JSON.
// The canonical on-disk form already is that dialect, so the projection is
// mostly a re-emission: homo-oligomeric entities stay single objects with
// an id list, templates pass through, and the paired MSA is included only
// when every polymer entity has paired rows, otherwise it is omitted
// entirely.
type AlphaFold struct{}

// NewAlphaFold creates the AlphaFold3 projector.
func NewAlphaFold() *AlphaFold {
	return &AlphaFold{}
}

func (p *AlphaFold) Tool() string { return "alphafold3" }

func (p *AlphaFold) Project(doc *document.Document) (Projection, error) {
	proj := Projection{Tool: p.Tool()}

	usePaired := pairedUniversal(doc)
	for _, seed := range seedsOrDefault(doc) {
		job := doc.Clone()
		job.Seeds = []int{seed}
		job.Dialect = "alphafold3"
		if job.Version == 0 {
			job.Version = 2
		}
		if !usePaired {
			for _, e := range job.Entities {
				if e.Alignment != nil {
					e.Alignment.Paired = nil
				}
			}
		}

		content, err := document.Encode(job)
		if err != nil {
			return Projection{}, fmt.Errorf("alphafold3 seed %d: %w", seed, err)
		}
		proj.Jobs = append(proj.Jobs, Job{
			Seed:     seed,
			Filename: fmt.Sprintf("%s_seed-%d_alphafold3.json", doc.Name, seed),
			Content:  content,
		})
	}
	return proj, nil
}
