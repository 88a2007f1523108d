// SPDX-License-Identifier: Apache-2.0

// Package watch monitors a prediction output directory and pairs up the
// structure and scores artifacts each tool run drops there.
package watch

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Pair is a complete (tool, seed) artifact set ready for normalization.
type Pair struct {
	Tool          string
	Seed          int
	StructurePath string
	ScoresPath    string
}

// artifactName matches files like boltz_seed-1_model.cif and
// chai_seed-42_scores.json.
var artifactName = regexp.MustCompile(`^(alphafold3|boltz|chai)_seed-(\d+)_`)

// Watcher pairs structure (.cif) and scores (.json) files as they appear.
type Watcher struct {
	watcher *fsnotify.Watcher

	pending map[string]*Pair // keyed by tool/seed
}

// New creates a watcher. Call Stop when done.
func New() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher: w,
		pending: make(map[string]*Pair),
	}, nil
}

// Watch monitors dir until ctx is cancelled, emitting a Pair every time
// both artifacts of a (tool, seed) run are present. The channel is closed
// when watching stops.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan Pair, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	pairs := make(chan Pair, 16)

	go func() {
		defer close(pairs)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				pair, complete := w.observe(event.Name)
				if !complete {
					continue
				}
				select {
				case pairs <- *pair:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return pairs, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// observe records one artifact path and reports whether its (tool, seed)
// pair is now complete. Completed pairs are removed from the pending set so
// a rewrite of one file starts a fresh pair.
func (w *Watcher) observe(path string) (*Pair, bool) {
	tool, seed, ok := parseArtifact(path)
	if !ok {
		return nil, false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".cif" && ext != ".json" {
		return nil, false
	}

	key := tool + "/" + strconv.Itoa(seed)
	pair, ok := w.pending[key]
	if !ok {
		pair = &Pair{Tool: tool, Seed: seed}
		w.pending[key] = pair
	}

	if ext == ".cif" {
		pair.StructurePath = path
	} else {
		pair.ScoresPath = path
	}

	if pair.StructurePath == "" || pair.ScoresPath == "" {
		return nil, false
	}
	delete(w.pending, key)
	return pair, true
}

func parseArtifact(path string) (tool string, seed int, ok bool) {
	m := artifactName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", 0, false
	}
	seed, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], seed, true
}
