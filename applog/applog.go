// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package applog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Log is an append-only text log shared by multiple workers. Each Append is
// carried out as a single write while holding the log's own lock, so lines of
// different workers never interleave.
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a Log appending to the file at the specified path. The file gets
// created on the first Append if it doesn't exist yet.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the filesystem path of this log.
func (l *Log) Path() string { return l.path }

// Append a single line to the log. The file is opened for each append, so a
// transient failure to open the log only drops this particular line; the
// error is returned to the caller for reporting.
func (l *Log) Append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open log %s: %w", l.path, err)
	}
	_, err = f.WriteString(line)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("cannot append to log %s: %w", l.path, err)
	}
	return nil
}

// Truncate empties the log, creating it if necessary.
func (l *Log) Truncate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot truncate log %s: %w", l.path, err)
	}
	return f.Close()
}

// Lines returns the lines currently in the log, without their line endings. A
// log that doesn't exist yet has no lines.
func (l *Log) Lines() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
