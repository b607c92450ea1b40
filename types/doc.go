/*
Package types defines multilookup's information model, which is rather small:
a hostname read from an input file turns into a [Resolution] once a consumer
has looked it up, with the [Quality] telling how far the lookup got.

# Value Semantics

Resolutions travel between goroutines, so they are plain values and the
“With” methods always return updated copies. A hostname handed over from the
queue to a consumer thus is never shared with anyone else, which avoids a
locking mess as well as tons of subtle bugs.
*/
package types
