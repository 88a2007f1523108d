// SPDX-License-Identifier: Apache-2.0

// Package align implements global pairwise sequence alignment and the
// position-mapping step used for template attachment. Scoring is plain
// residue identity; that is all the template resolver needs to decide
// which positions correspond.
package align

// Alignment holds two gapped rows of equal length. '-' marks a gap.
type Alignment struct {
	A, B string
}

const (
	matchScore    = 1
	mismatchScore = -1
	gapPenalty    = -2
)

func score(a, b byte) int {
	if a == b {
		return matchScore
	}
	return mismatchScore
}

// Global aligns two sequences with the Needleman-Wunsch algorithm and
// returns the gapped rows of the optimal alignment.
func Global(a, b string) Alignment {
	n, m := len(a), len(b)

	matrix := make([][]int, n+1)
	for i := range matrix {
		matrix[i] = make([]int, m+1)
		matrix[i][0] = gapPenalty * i
	}
	for j := 0; j <= m; j++ {
		matrix[0][j] = gapPenalty * j
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			matrix[i][j] = max3(
				matrix[i-1][j-1]+score(a[i-1], b[j-1]),
				matrix[i-1][j]+gapPenalty,
				matrix[i][j-1]+gapPenalty)
		}
	}

	// Trace an optimal path back from (n, m).
	var ra, rb []byte
	i, j := n, m
	for i > 0 && j > 0 {
		switch matrix[i][j] {
		case matrix[i-1][j-1] + score(a[i-1], b[j-1]):
			ra = append(ra, a[i-1])
			rb = append(rb, b[j-1])
			i--
			j--
		case matrix[i-1][j] + gapPenalty:
			ra = append(ra, a[i-1])
			rb = append(rb, '-')
			i--
		default:
			ra = append(ra, '-')
			rb = append(rb, b[j-1])
			j--
		}
	}
	for i > 0 {
		ra = append(ra, a[i-1])
		rb = append(rb, '-')
		i--
	}
	for j > 0 {
		ra = append(ra, '-')
		rb = append(rb, b[j-1])
		j--
	}

	reverse(ra)
	reverse(rb)
	return Alignment{A: string(ra), B: string(rb)}
}

// MapPositions walks an alignment and returns the parallel 0-based
// query/hit index lists of columns where both rows carry the same residue.
// Gapped and mismatched columns advance the indices but never appear in
// the output.
func MapPositions(aligned Alignment) (queryIdx, hitIdx []int) {
	qi, hi := 0, 0
	for k := 0; k < len(aligned.A) && k < len(aligned.B); k++ {
		qc, hc := aligned.A[k], aligned.B[k]
		switch {
		case qc == '-':
			hi++
		case hc == '-':
			qi++
		case qc == hc:
			queryIdx = append(queryIdx, qi)
			hitIdx = append(hitIdx, hi)
			qi++
			hi++
		default:
			qi++
			hi++
		}
	}
	return queryIdx, hitIdx
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func max3(a, b, c int) int {
	switch {
	case a >= b && a >= c:
		return a
	case b >= c:
		return b
	}
	return c
}
