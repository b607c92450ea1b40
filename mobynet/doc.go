/*
Package mobynet locates the network namespace of a Docker container, so that
multilookup can resolve hostnames from the perspective of that container,
talking to Docker's embedded DNS resolver at [EmbeddedDNS].
*/
package mobynet
