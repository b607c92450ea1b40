// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/miekg/dns"
)

// DNSServer is an in-process authoritative DNS server on the loopback
// interface, answering A and AAAA queries from a fixed zone and NXDOMAIN for
// everything else.
type DNSServer struct {
	zone    map[string][]string // FQDN -> IPv4 and IPv6 addresses
	delay   time.Duration
	queries atomic.Int64
	srv     *dns.Server
	pc      net.PacketConn
}

// NewDNSServer starts a new DNSServer on a random UDP port on 127.0.0.1,
// serving the specified zone of names and their addresses. The names don't
// need to be fully qualified. Answers get delayed by the optional delay.
func NewDNSServer(zone map[string][]string, delay ...time.Duration) (*DNSServer, error) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &DNSServer{
		zone: map[string][]string{},
		pc:   pc,
	}
	for name, addrs := range zone {
		s.zone[strings.ToLower(dns.Fqdn(name))] = addrs
	}
	if len(delay) > 0 {
		s.delay = delay[0]
	}
	started := make(chan struct{})
	s.srv = &dns.Server{
		PacketConn:        pc,
		Handler:           s,
		NotifyStartedFunc: func() { close(started) },
	}
	go func() { _ = s.srv.ActivateAndServe() }()
	<-started
	return s, nil
}

// Addr returns the "host:port" address the server is listening on.
func (s *DNSServer) Addr() string { return s.pc.LocalAddr().String() }

// Queries returns the number of DNS queries served so far.
func (s *DNSServer) Queries() int64 { return s.queries.Load() }

// Stop the server.
func (s *DNSServer) Stop() {
	_ = s.srv.Shutdown()
}

// ServeDNS handles incoming DNS queries.
func (s *DNSServer) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	s.queries.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	msg := new(dns.Msg)
	msg.SetReply(r)
	msg.Authoritative = true
	for _, q := range r.Question {
		addrs, ok := s.zone[strings.ToLower(q.Name)]
		if !ok {
			msg.SetRcode(r, dns.RcodeNameError)
			break
		}
		for _, addr := range addrs {
			ip := net.ParseIP(addr)
			if ip == nil {
				continue
			}
			hdr := dns.RR_Header{Name: q.Name, Class: dns.ClassINET, Ttl: 60}
			switch {
			case q.Qtype == dns.TypeA && ip.To4() != nil:
				hdr.Rrtype = dns.TypeA
				msg.Answer = append(msg.Answer, &dns.A{Hdr: hdr, A: ip.To4()})
			case q.Qtype == dns.TypeAAAA && ip.To4() == nil:
				hdr.Rrtype = dns.TypeAAAA
				msg.Answer = append(msg.Answer, &dns.AAAA{Hdr: hdr, AAAA: ip})
			}
		}
	}
	_ = w.WriteMsg(msg)
}
