// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mobynet

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
)

// EmbeddedDNS is the address of Docker's embedded DNS resolver as seen from
// inside containers attached to user-defined networks.
const EmbeddedDNS = "127.0.0.11:53"

// DefaultHost is the default Docker daemon API endpoint.
const DefaultHost = "unix:///var/run/docker.sock"

// NewClient returns a new Docker client for the specified daemon API endpoint,
// or the default endpoint if empty.
func NewClient(host string) (*client.Client, error) {
	if host == "" {
		host = DefaultHost
	}
	return client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
}

// NetworkNamespaceOf inspects the specified container, identified either by
// its name or ID, and returns a filesystem path referencing the network
// namespace of the container, suitable for entering it. The container must be
// running.
func NetworkNamespaceOf(ctx context.Context, moby client.ContainerAPIClient, container string) (string, error) {
	details, err := moby.ContainerInspect(ctx, container)
	if err != nil {
		return "", fmt.Errorf("cannot inspect container %q: %w", container, err)
	}
	if details.ContainerJSONBase == nil || details.State == nil || details.State.Pid == 0 {
		return "", fmt.Errorf("container %q is not running", container)
	}
	return fmt.Sprintf("/proc/%d/ns/net", details.State.Pid), nil
}
