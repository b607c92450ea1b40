/*
Package applog implements the append-only text logs multilookup writes its
results and per-producer service counts to.

Every [Log] has its own lock, so the results log and the service-count log
never hold up each other. Appends open, write, and close the log file, just
like “>>” in a shell would do.
*/
package applog
