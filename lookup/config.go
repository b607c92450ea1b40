// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lookup

import (
	"errors"
	"fmt"

	"github.com/siemens/multilookup/queue"
)

// Configuration limits.
const (
	MaxProducers  = 10
	MaxConsumers  = 10
	MaxInputFiles = 10
)

// ErrConfig is wrapped by all configuration errors returned by
// [Config.Validate].
var ErrConfig = errors.New("invalid configuration")

// Config describes a single lookup run.
type Config struct {
	Producers     int         // number of producers reading input files.
	Consumers     int         // number of consumers resolving hostnames.
	ResultsPath   string      // results log, one "hostname,address" line per hostname.
	ServicePath   string      // service-count log, one line per producer.
	Inputs        []string    // input files with whitespace-separated hostnames.
	QueueCapacity int         // capacity of the hostname queue; zero means queue.DefaultCapacity.
	Order         queue.Order // order in which consumers take hostnames from the queue.
	Sentinel      string      // address logged for failed resolutions.
	Truncate      bool        // empty both logs before starting.
}

// Validate checks the configuration, returning an error wrapping [ErrConfig]
// if it is unusable.
func (c *Config) Validate() error {
	if c.Producers < 1 || c.Producers > MaxProducers {
		return fmt.Errorf("%w: number of producers out of range [1..%d], got: %d",
			ErrConfig, MaxProducers, c.Producers)
	}
	if c.Consumers < 1 || c.Consumers > MaxConsumers {
		return fmt.Errorf("%w: number of consumers out of range [1..%d], got: %d",
			ErrConfig, MaxConsumers, c.Consumers)
	}
	if len(c.Inputs) < 1 || len(c.Inputs) > MaxInputFiles {
		return fmt.Errorf("%w: number of input files out of range [1..%d], got: %d",
			ErrConfig, MaxInputFiles, len(c.Inputs))
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue capacity must not be negative, got: %d",
			ErrConfig, c.QueueCapacity)
	}
	if c.ResultsPath == "" {
		return fmt.Errorf("%w: missing results log path", ErrConfig)
	}
	if c.ServicePath == "" {
		return fmt.Errorf("%w: missing service-count log path", ErrConfig)
	}
	return nil
}

// capacity returns the effective queue capacity.
func (c *Config) capacity() int {
	if c.QueueCapacity == 0 {
		return queue.DefaultCapacity
	}
	return c.QueueCapacity
}
