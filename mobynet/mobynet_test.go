// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mobynet

import (
	"context"
	"errors"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// fakeMoby answers container inspections from a fixed set of containers, by
// name. Embedding the interface lets all other API calls panic.
type fakeMoby struct {
	client.ContainerAPIClient
	cntrs map[string]types.ContainerJSON
}

func (m *fakeMoby) ContainerInspect(ctx context.Context, name string) (types.ContainerJSON, error) {
	cntr, ok := m.cntrs[name]
	if !ok {
		return types.ContainerJSON{}, errors.New("no such container")
	}
	return cntr, nil
}

func cntr(pid int) types.ContainerJSON {
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			State: &types.ContainerState{Pid: pid},
		},
	}
}

var _ = Describe("container network namespaces", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("references the network namespace of a running container", func(ctx context.Context) {
		moby := &fakeMoby{cntrs: map[string]types.ContainerJSON{
			"running": cntr(666),
			"stopped": cntr(0),
		}}
		Expect(NetworkNamespaceOf(ctx, moby, "running")).To(Equal("/proc/666/ns/net"))
		Expect(NetworkNamespaceOf(ctx, moby, "stopped")).Error().To(
			MatchError(ContainSubstring("not running")))
		Expect(NetworkNamespaceOf(ctx, moby, "nada")).Error().To(
			MatchError(ContainSubstring("cannot inspect")))
	})

	It("creates a Docker client", func() {
		cln := Successful(NewClient(""))
		defer cln.Close()
		Expect(cln.DaemonHost()).To(Equal(DefaultHost))
	})

})
