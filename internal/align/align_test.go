// SPDX-License-Identifier: Apache-2.0

package align_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trifoldproj/trifold/internal/align"
)

func TestGlobal_Identical(t *testing.T) {
	got := align.Global("MKTAYI", "MKTAYI")
	assert.Equal(t, "MKTAYI", got.A)
	assert.Equal(t, "MKTAYI", got.B)
}

func TestGlobal_GapsInShorterSequence(t *testing.T) {
	got := align.Global("MKTAYI", "MKTI")
	require.Len(t, got.A, len(got.B))
	assert.NotContains(t, got.A, "-")
	assert.Equal(t, 2, countGaps(got.B))
}

func TestMapPositions(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		wantQuery []int
		wantHit   []int
	}{
		{
			name:      "identity",
			a:         "MKT",
			b:         "MKT",
			wantQuery: []int{0, 1, 2},
			wantHit:   []int{0, 1, 2},
		},
		{
			name:      "gap in hit shifts query only",
			a:         "MKTA",
			b:         "MK-A",
			wantQuery: []int{0, 1, 3},
			wantHit:   []int{0, 1, 2},
		},
		{
			name:      "gap in query shifts hit only",
			a:         "MK-A",
			b:         "MKTA",
			wantQuery: []int{0, 1, 2},
			wantHit:   []int{0, 1, 3},
		},
		{
			name:      "mismatched column is excluded",
			a:         "MKTA",
			b:         "MQTA",
			wantQuery: []int{0, 2, 3},
			wantHit:   []int{0, 2, 3},
		},
		{
			name:      "nothing aligns",
			a:         "MM",
			b:         "KK",
			wantQuery: nil,
			wantHit:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, hit := align.MapPositions(align.Alignment{A: tt.a, B: tt.b})
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantHit, hit)
		})
	}
}

func TestGlobal_MapRoundTrip(t *testing.T) {
	// Every mapped pair must point at identical residues in the originals.
	a, b := "MKTAYIAKQRQISFVK", "KTAYIAQRQISFV"
	query, hit := align.MapPositions(align.Global(a, b))
	require.NotEmpty(t, query)
	require.Len(t, hit, len(query))
	for k := range query {
		assert.Equal(t, a[query[k]], b[hit[k]])
	}
}

func countGaps(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			n++
		}
	}
	return n
}
