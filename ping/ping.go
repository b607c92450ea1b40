// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/siemens/multilookup/types"

	"github.com/go-ping/ping"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// Pinger checks resolved addresses for reachability by pinging them.
type Pinger struct {
	count               int           // number of pings to send.
	interval            time.Duration // distance between pings.
	thresholdPercentage uint          // percentage of successful pings for a reachable address.
	unprivileged        bool          // if true, uses UDP-based pings instead of privileged ICMPs.

	netns relations.Relation // network namespace to ping from, or nil.
}

// PingerOption can be passed to New when creating new Pinger objects.
type PingerOption func(*Pinger)

// New returns a new [Pinger].
//
// The new pinger defaults to pinging 3 times at intervals of 1s between each
// ping. The reachability threshold defaults to 50(%).
//
// The pinger can be configured during creation using several option:
//   - [WithCount]
//   - [WithInterval]
//   - [WithThresholdPercentage]
//   - [AsUnprivileged]
//
// To operate a Pinger in a network namespace different to that of the OS-level
// thread of the caller specify the InNetworkNamespace option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func New(options ...PingerOption) *Pinger {
	pinger := &Pinger{
		count:               3,
		interval:            time.Second,
		thresholdPercentage: 50,
	}
	for _, opt := range options {
		opt(pinger)
	}
	return pinger
}

// InNetworkNamespace optionally runs a [Pinger] inside the network namespace
// referenced by the specified filesystem path. An empty path leaves the pinger
// in the caller's network namespace.
func InNetworkNamespace(netnsref string) PingerOption {
	return func(p *Pinger) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithCount sets the number of pings for testing reachability of an IP address.
func WithCount(count uint) PingerOption {
	return func(p *Pinger) {
		p.count = int(count)
	}
}

// WithInterval sets the interval between consecutive pings.
func WithInterval(interval time.Duration) PingerOption {
	return func(p *Pinger) {
		p.interval = interval
	}
}

// AsUnprivileged tells the Pinger to carry out unprivileged pings using UDP
// instead of ICMP packet.
func AsUnprivileged() PingerOption {
	return func(p *Pinger) {
		p.unprivileged = true
	}
}

// WithThresholdPercentage takes a percentage between 0 and 100 that specifies
// the percentage of successful ping responses required in order to consider
// the pinged IP address to be reachable.
func WithThresholdPercentage(threshold uint) PingerOption {
	if threshold > 100 {
		panic(fmt.Errorf("Pinger: threshold must be a percentage between 0 <= threshold <= 100, got: %d",
			threshold))
	}
	return func(p *Pinger) {
		p.thresholdPercentage = threshold
	}
}

// Check pings the specified IP address and returns [types.Reachable] if enough
// ping replies came back, otherwise [types.Unreachable] together with the
// reason. Check blocks until the pings are done or the context gets done,
// whatever happens first; the address is then considered to be unreachable.
//
// Please note that you should use IP address literals instead of DNS names in
// case you want precise control over the specific IP address to check.
func (p *Pinger) Check(ctx context.Context, addr string) (types.Quality, error) {
	ping := func() interface{} {
		// A quick and non-blocking check to see if the context has been
		// cancelled before we start our work...
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pinger, err := ping.NewPinger(addr)
		if err != nil {
			return err
		}
		pinger.SetPrivileged(!p.unprivileged)
		pinger.Count = p.count
		pinger.Interval = p.interval
		// Always limit waiting for the last ping to get reflected (or not)!
		pinger.Timeout = time.Duration(int64(p.interval) * int64(p.count+2))
		// While the ping will be running, we need to monitor the context in
		// case it becomes "done" by either getting cancelled or reaching
		// its deadline. The done channel here works "the other way round"
		// in the sense that it terminated the concurrent context
		// monitoring.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				pinger.Stop()
			case <-done:
			}
		}()
		if err = pinger.Run(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := pinger.Statistics()
		if stats.PacketsRecv < pinger.Count*int(p.thresholdPercentage)/100 {
			return errors.New("no replies or too many losses")
		}
		return nil
	}
	// Run the ping in the requested network namespace, if necessary. lxkns'
	// ops.Execute differentiates between a namespace switching error and the
	// result of the function called in the switched namespaces.
	var err error
	if p.netns != nil {
		var pingerr interface{}
		pingerr, err = ops.Execute(ping, p.netns)
		if err == nil && pingerr != nil {
			if fnerr, ok := pingerr.(error); ok {
				err = fnerr
			}
		}
	} else if res := ping(); res != nil {
		err = res.(error)
	}
	if err != nil {
		return types.Unreachable, err
	}
	return types.Reachable, nil
}

// CheckResolution checks the address of a successfully resolved hostname and
// returns the resolution with its quality updated accordingly. Failed
// resolutions are returned unchanged.
func (p *Pinger) CheckResolution(ctx context.Context, res types.Resolution) types.Resolution {
	return checkResolution(ctx, p, res)
}
