// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the maximum length in bytes of a single hostname token.
// Longer tokens get truncated.
const MaxNameLength = 1024

// Resolution is the outcome of looking up a single hostname. Resolutions are
// passed around by value; the With* methods return updated copies, so a
// Resolution handed over to another goroutine is never aliased.
type Resolution struct {
	Hostname string  `json:"hostname"`
	Address  string  `json:"address"` // empty unless Quality.HasAddress().
	Quality  Quality `json:"quality"`
	err      error   // optional details for failed or unreachable addresses.
}

// NewResolution returns a not yet resolved Resolution for the specified
// hostname.
func NewResolution(hostname string) Resolution {
	return Resolution{Hostname: hostname}
}

// Err returns the error that caused a resolution to fail or an address to be
// considered unreachable, if any.
func (r Resolution) Err() error { return r.err }

// WithAddress returns a copy that has been successfully resolved into addr.
func (r Resolution) WithAddress(addr string) Resolution {
	r.Address = addr
	r.Quality = Resolved
	r.err = nil
	return r
}

// WithFailure returns a copy that failed to resolve for the specified reason.
func (r Resolution) WithFailure(err error) Resolution {
	r.Address = ""
	r.Quality = Failed
	r.err = err
	return r
}

// WithQuality returns a copy with its quality updated, keeping the address.
func (r Resolution) WithQuality(q Quality, err error) Resolution {
	r.Quality = q
	r.err = err
	return r
}

// Line renders the resolution as a single results log line of the form
// "<hostname>,<address>\n". Failed resolutions render the sentinel in place of
// the address. If withQuality is set, a third field with the quality is
// appended.
func (r Resolution) Line(sentinel string, withQuality bool) string {
	var b strings.Builder
	b.Grow(len(r.Hostname) + len(r.Address) + 16)
	b.WriteString(r.Hostname)
	b.WriteByte(',')
	if r.Quality.HasAddress() {
		b.WriteString(r.Address)
	} else {
		b.WriteString(sentinel)
	}
	if withQuality {
		b.WriteByte(',')
		b.WriteString(r.Quality.String())
	}
	b.WriteByte('\n')
	return b.String()
}

// TruncateName cuts a hostname token down to at most MaxNameLength bytes,
// reporting whether it had to be truncated. The cut never splits a UTF-8
// encoded rune.
func TruncateName(token string) (string, bool) {
	if len(token) <= MaxNameLength {
		return token, false
	}
	n := MaxNameLength
	for n > 0 && !utf8.RuneStart(token[n]) {
		n--
	}
	return token[:n], true
}
