// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/siemens/multilookup/applog"
	"github.com/siemens/multilookup/dnsworker"
	"github.com/siemens/multilookup/queue"
	"github.com/siemens/multilookup/resolve"
	"github.com/siemens/multilookup/test"
	"github.com/siemens/multilookup/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// fakeAddr returns a stable fake address for a hostname.
func fakeAddr(hostname string) string {
	sum := 0
	for _, r := range hostname {
		sum += int(r)
	}
	return fmt.Sprintf("192.0.2.%d", sum%254+1)
}

// stubResolver resolves every hostname into its fake address, after an
// optional random delay.
func stubResolver(maxDelay time.Duration) resolve.Resolver {
	return resolve.Func(func(ctx context.Context, hostname string) (string, error) {
		if maxDelay > 0 {
			time.Sleep(time.Duration(rand.Int63n(int64(maxDelay))))
		}
		return fakeAddr(hostname), nil
	})
}

// failingResolver never resolves anything.
var failingResolver = resolve.Func(func(ctx context.Context, hostname string) (string, error) {
	return "", errors.New("no such host")
})

// writeInputs creates the specified number of input files in dir, each with
// the specified number of unique hostnames, separated by a random mix of
// whitespace. It returns the file paths and all hostnames written.
func writeInputs(dir string, files, perFile int) ([]string, []string) {
	GinkgoHelper()
	seps := []string{"\n", " ", "\t", "\n\n", "  \r\n"}
	var paths, hosts []string
	for f := 0; f < files; f++ {
		var b strings.Builder
		for h := 0; h < perFile; h++ {
			host := fmt.Sprintf("host-%d-%d.example.org", f, h)
			hosts = append(hosts, host)
			b.WriteString(host)
			b.WriteString(seps[(f+h)%len(seps)])
		}
		path := filepath.Join(dir, fmt.Sprintf("names%d.txt", f+1))
		Expect(os.WriteFile(path, []byte(b.String()), 0o644)).To(Succeed())
		paths = append(paths, path)
	}
	return paths, hosts
}

// firstFields returns the sorted first fields of the specified lines.
func firstFields(lines []string) []string {
	fields := make([]string, 0, len(lines))
	for _, line := range lines {
		fields = append(fields, strings.SplitN(line, ",", 2)[0])
	}
	sort.Strings(fields)
	return fields
}

func sorted(s []string) []string {
	s = append([]string(nil), s...)
	sort.Strings(s)
	return s
}

var _ = Describe("lookup pipeline", func() {

	var dir string

	BeforeEach(func() {
		goodgos := Goroutines()
		dir = GinkgoT().TempDir()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	config := func(producers, consumers int, inputs []string) Config {
		return Config{
			Producers:   producers,
			Consumers:   consumers,
			ResultsPath: filepath.Join(dir, "results.txt"),
			ServicePath: filepath.Join(dir, "serviced.txt"),
			Inputs:      inputs,
		}
	}

	It("refuses to work on an invalid configuration", func() {
		Expect(New(Config{}, stubResolver(0))).Error().To(MatchError(ErrConfig))
		Expect(New(config(1, 1, []string{"foo"}), nil)).Error().To(MatchError(ErrConfig))
	})

	It("terminates cleanly and logs all hostnames", NodeTimeout(10*time.Second), func(ctx context.Context) {
		inputs, hosts := writeInputs(dir, 2, 5)
		p := Successful(New(config(2, 3, inputs), stubResolver(5*time.Millisecond)))
		stats := Successful(p.Run(ctx))

		lines := Successful(applog.New(filepath.Join(dir, "results.txt")).Lines())
		Expect(lines).To(HaveLen(10))
		Expect(firstFields(lines)).To(Equal(sorted(hosts)))
		for _, line := range lines {
			host := strings.SplitN(line, ",", 2)[0]
			Expect(line).To(Equal(host + "," + fakeAddr(host)))
		}

		serviced := Successful(applog.New(filepath.Join(dir, "serviced.txt")).Lines())
		Expect(serviced).To(ConsistOf(
			MatchRegexp(`^producer-1 serviced \d+ files$`),
			MatchRegexp(`^producer-2 serviced \d+ files$`)))

		Expect(stats.FilesServiced).To(Equal(int64(2)))
		Expect(stats.FilesFailed).To(BeZero())
		Expect(stats.Queued).To(Equal(int64(10)))
		Expect(stats.Resolved).To(Equal(int64(10)))
		Expect(stats.Done()).To(Equal(int64(10)))
		Expect(stats.Producers).To(BeZero())
		Expect(stats.Consumers).To(BeZero())
		Expect(stats.QueueLen).To(BeZero())
		Expect(stats.QueueHighWater).To(BeNumerically("<=", queue.DefaultCapacity))
		Expect(stats.Elapsed).To(BeNumerically(">", 0))

		_, err := p.Run(ctx)
		Expect(err).To(MatchError(ErrAlreadyRun))
	})

	DescribeTable("never loses hostnames, whatever the pool sizes",
		func(ctx SpecContext, producers, consumers, files, capacity int, order queue.Order) {
			inputs, hosts := writeInputs(dir, files, 40)
			cfg := config(producers, consumers, inputs)
			cfg.QueueCapacity = capacity
			cfg.Order = order
			p := Successful(New(cfg, stubResolver(time.Millisecond)))
			stats := Successful(p.Run(ctx))

			lines := Successful(applog.New(cfg.ResultsPath).Lines())
			Expect(firstFields(lines)).To(Equal(sorted(hosts)))
			Expect(stats.QueueHighWater).To(BeNumerically("<=", capacity))
			Expect(Successful(applog.New(cfg.ServicePath).Lines())).To(HaveLen(producers))
		},
		Entry("1 producer, 1 consumer", NodeTimeout(20*time.Second), 1, 1, 3, 1, queue.FIFO),
		Entry("more producers than files", NodeTimeout(20*time.Second), 5, 2, 2, 4, queue.LIFO),
		Entry("10 producers, 10 consumers", NodeTimeout(20*time.Second), 10, 10, 10, 15, queue.FIFO),
		Entry("1 producer, 10 consumers", NodeTimeout(20*time.Second), 1, 10, 4, 2, queue.LIFO),
		Entry("10 producers, 1 consumer", NodeTimeout(20*time.Second), 10, 1, 10, 3, queue.FIFO),
	)

	It("logs failed resolutions and still terminates", NodeTimeout(10*time.Second), func(ctx context.Context) {
		inputs, hosts := writeInputs(dir, 2, 5)
		p := Successful(New(config(2, 3, inputs), failingResolver))
		stats := Successful(p.Run(ctx))

		lines := Successful(applog.New(filepath.Join(dir, "results.txt")).Lines())
		Expect(lines).To(HaveLen(len(hosts)))
		Expect(lines).To(HaveEach(MatchRegexp(`^host-\d-\d\.example\.org,$`)))
		Expect(stats.Failed).To(Equal(int64(len(hosts))))
		Expect(stats.Resolved).To(BeZero())
	})

	It("logs the sentinel for failed resolutions", NodeTimeout(10*time.Second), func(ctx context.Context) {
		inputs, _ := writeInputs(dir, 1, 3)
		cfg := config(1, 1, inputs)
		cfg.Sentinel = "-"
		p := Successful(New(cfg, failingResolver))
		_, err := p.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(Successful(applog.New(cfg.ResultsPath).Lines())).To(HaveEach(HaveSuffix(",-")))
	})

	It("skips input files it cannot open", NodeTimeout(10*time.Second), func(ctx context.Context) {
		inputs, hosts := writeInputs(dir, 1, 5)
		inputs = append([]string{filepath.Join(dir, "nada.txt")}, inputs...)
		p := Successful(New(config(2, 3, inputs), stubResolver(0)))
		stats := Successful(p.Run(ctx))

		lines := Successful(applog.New(filepath.Join(dir, "results.txt")).Lines())
		Expect(firstFields(lines)).To(Equal(sorted(hosts)))
		Expect(stats.FilesFailed).To(Equal(int64(1)))
		Expect(stats.FilesServiced).To(Equal(int64(1)))
		serviced := Successful(applog.New(filepath.Join(dir, "serviced.txt")).Lines())
		total := 0
		for _, line := range serviced {
			var id, n int
			Expect(fmt.Sscanf(line, "producer-%d serviced %d files", &id, &n)).To(Equal(2))
			total += n
		}
		Expect(total).To(Equal(1))
		Expect(p.InputErrors()).To(ConsistOf(
			SatisfyAll(
				MatchError(fs.ErrNotExist),
				MatchError(ContainSubstring("cannot open input file")),
				MatchError(ContainSubstring("nada.txt")))))
	})

	It("produces the same results when re-run", NodeTimeout(10*time.Second), func(ctx context.Context) {
		inputs, _ := writeInputs(dir, 3, 7)
		cfg := config(2, 3, inputs)
		cfg.Truncate = true
		var counts []int
		for run := 0; run < 2; run++ {
			p := Successful(New(cfg, stubResolver(time.Millisecond)))
			_, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			counts = append(counts, len(Successful(applog.New(cfg.ResultsPath).Lines())))
		}
		Expect(counts).To(Equal([]int{21, 21}))
		Expect(Successful(applog.New(cfg.ServicePath).Lines())).To(HaveLen(2))
	})

	It("truncates overly long hostnames", NodeTimeout(10*time.Second), func(ctx context.Context) {
		long := strings.Repeat("x", types.MaxNameLength+100)
		path := filepath.Join(dir, "long.txt")
		Expect(os.WriteFile(path, []byte("short.example.org\n"+long+"\n"), 0o644)).To(Succeed())
		p := Successful(New(config(1, 1, []string{path}), stubResolver(0)))
		stats := Successful(p.Run(ctx))
		Expect(stats.Truncated).To(Equal(int64(1)))
		Expect(firstFields(Successful(applog.New(filepath.Join(dir, "results.txt")).Lines()))).To(
			ConsistOf("short.example.org", long[:types.MaxNameLength]))
	})

	It("skips the remainder of huge tokens but not the hostnames after them", NodeTimeout(10*time.Second), func(ctx context.Context) {
		huge := strings.Repeat("x", 70*1024)
		path := filepath.Join(dir, "huge.txt")
		Expect(os.WriteFile(path, []byte(
			"a.example.org "+huge+" b.example.org\nc.example.org"), 0o644)).To(Succeed())
		p := Successful(New(config(1, 1, []string{path}), stubResolver(0)))
		stats := Successful(p.Run(ctx))
		Expect(stats.Truncated).To(Equal(int64(1)))
		Expect(stats.Queued).To(Equal(int64(4)))
		Expect(firstFields(Successful(applog.New(filepath.Join(dir, "results.txt")).Lines()))).To(
			ConsistOf("a.example.org", huge[:types.MaxNameLength], "b.example.org", "c.example.org"))
		Expect(p.InputErrors()).To(BeEmpty())
	})

	It("always registers a producer as finished", func() {
		inputs, _ := writeInputs(dir, 1, 1)
		p := Successful(New(config(1, 1, inputs), stubResolver(0)))
		// Pushing now fails, as the queue has seen its only producer
		// finishing; the producer must still deregister, which then is one
		// time too many.
		p.queue.ProducerDone()
		Expect(func() { _ = p.produce(1) }).To(PanicWith(ContainSubstring("more producers finished")))
		Expect(p.queue.Finished()).To(Equal(1))
	})

	It("keeps going when the results log cannot be written", NodeTimeout(10*time.Second), func(ctx context.Context) {
		inputs, hosts := writeInputs(dir, 1, 4)
		cfg := config(1, 2, inputs)
		cfg.ResultsPath = filepath.Join(dir, "nowhere", "results.txt")
		p := Successful(New(cfg, stubResolver(0)))
		stats := Successful(p.Run(ctx))
		Expect(stats.AppendErrors).To(Equal(int64(len(hosts))))
		Expect(stats.Resolved).To(Equal(int64(len(hosts))))
	})

	It("fails remaining resolutions once the context is done", NodeTimeout(10*time.Second), func(specctx context.Context) {
		inputs, hosts := writeInputs(dir, 2, 5)
		ctx, cancel := context.WithCancel(specctx)
		cancel()
		resolver := resolve.Func(func(ctx context.Context, hostname string) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return fakeAddr(hostname), nil
		})
		p := Successful(New(config(2, 2, inputs), resolver))
		stats := Successful(p.Run(ctx))
		Expect(stats.Failed).To(Equal(int64(len(hosts))))
		Expect(Successful(applog.New(filepath.Join(dir, "results.txt")).Lines())).To(HaveLen(len(hosts)))
	})

	It("logs reachability when verifying", NodeTimeout(10*time.Second), func(ctx context.Context) {
		inputs, hosts := writeInputs(dir, 1, 4)
		p := Successful(New(config(1, 2, inputs), stubResolver(0),
			WithVerifier(verifierFunc(func(_ context.Context, res types.Resolution) types.Resolution {
				if strings.HasPrefix(res.Hostname, "host-0-0.") {
					return res.WithQuality(types.Unreachable, errors.New("no replies"))
				}
				return res.WithQuality(types.Reachable, nil)
			}))))
		stats := Successful(p.Run(ctx))
		Expect(stats.Reachable).To(Equal(int64(len(hosts) - 1)))
		Expect(stats.Unreachable).To(Equal(int64(1)))
		lines := Successful(applog.New(filepath.Join(dir, "results.txt")).Lines())
		Expect(lines).To(ContainElement("host-0-0.example.org," + fakeAddr("host-0-0.example.org") + ",unreachable"))
		Expect(lines).To(HaveEach(MatchRegexp(`,(un)?reachable$`)))
	})

	It("resolves end-to-end through a cached DNS pool", NodeTimeout(30*time.Second), func(ctx context.Context) {
		path := filepath.Join(dir, "names.txt")
		Expect(os.WriteFile(path, []byte(
			"foo.example.org bar.example.org\nfoo.example.org\nnada.example.org\n"), 0o644)).To(Succeed())
		srv := Successful(test.NewDNSServer(map[string][]string{
			"foo.example.org": {"192.0.2.1"},
			"bar.example.org": {"2001:db8::2"},
		}))
		defer srv.Stop()
		dnsclnt := dns.Client{}
		pool := Successful(dnsworker.New(ctx, 2, &dnsclnt, srv.Addr()))
		defer pool.StopWait()

		p := Successful(New(config(1, 2, []string{path}), resolve.NewCached(resolve.NewPooled(pool))))
		stats := Successful(p.Run(ctx))
		Expect(stats.Resolved).To(Equal(int64(3)))
		Expect(stats.Failed).To(Equal(int64(1)))
		Expect(Successful(applog.New(filepath.Join(dir, "results.txt")).Lines())).To(ConsistOf(
			"foo.example.org,192.0.2.1",
			"foo.example.org,192.0.2.1",
			"bar.example.org,2001:db8::2",
			"nada.example.org,",
		))
	})

})

type verifierFunc func(ctx context.Context, res types.Resolution) types.Resolution

func (f verifierFunc) CheckResolution(ctx context.Context, res types.Resolution) types.Resolution {
	return f(ctx, res)
}
