/*
Package resolve defines the hostname resolution primitive used by the lookup
consumers, the [Resolver], together with its implementations:

  - [System] uses the system's resolver, akin to getaddrinfo(3).
  - [Pooled] queries a specific DNS server through a [dnsworker.DnsPool],
    optionally from inside a different network namespace.
  - [Cached] wraps any other Resolver to resolve duplicate hostnames only once.
  - [Func] turns a plain function into a Resolver, such as for stubs.

Resolvers return a single address per hostname, preferring IPv4 over IPv6.
*/
package resolve
