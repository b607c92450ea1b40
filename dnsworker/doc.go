/*
Package dnsworker implements a simple limiting DNS client-request execution
pool. Multilookup uses [DnsPool] with a pool of “DNS workers” for A/AAAA lookups
whenever a specific DNS server has been requested, instead of the system's
resolver. Please note that the A/AAAA queries for a single fqdn are not
concurrent.

Usage

	dnsclnt := dns.Client{}
	workers, err := dnsworker.New(
	    context.Background(),
	    4,                    // number of parallel DNS connections and thus workers
	    &dnsclnt,             // DNS client
	    "127.0.0.1:53",       // address of server/resolver
	    dnsworker.WithTimeout(2*time.Second),
	)
	workers.ResolveName(
	    ctx,
	    "foobar.example.org",
	    func(addrs []string, err error){
	        // do something with addrs, unless there's an error reported
	    })
	addrs, err := workers.Lookup(ctx, "foobar.example.org")
	workers.Submit(func(conn *dns.Conn) bool {
	    // do something with the DNS connection
	    return true // ...connection still usable
	})

# Acknowledgements

Under its hood, [DnsPool] leverages [gammazero/workerpool] as
the limiting goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package dnsworker
