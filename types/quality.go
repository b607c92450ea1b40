// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Quality indicates how far a hostname got: resolved or not, and optionally
// whether the resolved address answered to pings.
type Quality int

// The resolution qualities of a hostname.
const (
	Unresolved  Quality = iota // hostname read, but not yet looked up.
	Resolving                  // lookup in progress.
	Failed                     // lookup failed; no address.
	Resolved                   // address found, reachability unknown.
	Unreachable                // address found, but failed the ping check.
	Reachable                  // address found and answering pings.
)

// String returns the clear-text representation of a Quality value.
func (q Quality) String() string {
	switch q {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Failed:
		return "failed"
	case Resolved:
		return "resolved"
	case Unreachable:
		return "unreachable"
	case Reachable:
		return "reachable"
	}
	return fmt.Sprintf("Quality(%d)", q)
}

// IsFinal returns true if no further lookup is to be expected for a hostname
// with this quality.
func (q Quality) IsFinal() bool {
	switch q {
	case Unresolved, Resolving:
		return false
	default:
		return true
	}
}

// HasAddress returns true if a hostname with this quality has been resolved
// into an address.
func (q Quality) HasAddress() bool {
	return q >= Resolved
}
