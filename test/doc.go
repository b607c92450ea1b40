/*
Package test provides a hermetic test harness for the multilookup packages: an
in-process DNS server answering from a fixed zone, so that resolution tests
neither depend on the network nor on the host's resolver configuration.
*/
package test
