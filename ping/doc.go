/*
Package ping implements an ICMP(v4/v6)-based reachability check for resolved
IP addresses.

When asked to, multilookup's consumers run a resolved address past a [Pinger]
before logging it, turning the address quality from [types.Resolved] into
either [types.Reachable] or [types.Unreachable]. The check runs on the
consumer's goroutine and thus, like the resolution itself, only ever stalls
this single consumer.

	          +---+
	address-->| P +-->Quality
	          +---+

As different hostnames often resolve to the same address, an [AddressCache]
in front of a [Pinger] pings each address only once, handing out the same
verdict to all consumers asking about that address.

# Acknowledgements

Under its hood, [Pinger] leverages [go-ping/ping] for the actual pinging.

[go-ping/ping]: https://github.com/go-ping/ping
*/
package ping
