// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve_OtherExtensionsLeaveNoPendingEntry(t *testing.T) {
	w := &Watcher{pending: make(map[string]*Pair)}

	// A matching-named artifact with a foreign extension must not open a
	// pending pair that nothing will ever complete.
	_, complete := w.observe("out/boltz_seed-3_scores.npz")
	assert.False(t, complete)
	assert.Empty(t, w.pending)

	_, complete = w.observe("out/boltz_seed-3_model.cif")
	assert.False(t, complete)
	assert.Len(t, w.pending, 1)

	pair, complete := w.observe("out/boltz_seed-3_scores.json")
	require.True(t, complete)
	assert.Equal(t, "out/boltz_seed-3_model.cif", pair.StructurePath)
	assert.Equal(t, "out/boltz_seed-3_scores.json", pair.ScoresPath)
	assert.Empty(t, w.pending)
}
