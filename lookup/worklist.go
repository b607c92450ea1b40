// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import "sync"

// WorkList is the list of input files still to be read, shared by all
// producers. It only ever shrinks.
type WorkList struct {
	mu    sync.Mutex
	paths []string
}

// NewWorkList returns a new WorkList with the specified file paths, handing
// them out in the order given.
func NewWorkList(paths []string) *WorkList {
	return &WorkList{paths: append([]string(nil), paths...)}
}

// Claim takes the next file path off the work list, returning false if there
// are no more files left.
func (w *WorkList) Claim() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.paths) == 0 {
		return "", false
	}
	path := w.paths[0]
	w.paths[0] = ""
	w.paths = w.paths[1:]
	return path, true
}

// Len returns the number of files not yet claimed.
func (w *WorkList) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}
