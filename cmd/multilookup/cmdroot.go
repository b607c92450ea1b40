// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/siemens/multilookup/lookup"
	"github.com/siemens/multilookup/queue"
	"github.com/siemens/multilookup/types"

	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

var (
	capacity        *uint
	order           *string
	server          *string
	container       *string
	dockerHost      *string
	netns           *string
	timeout         *time.Duration
	cache           *bool
	verify          *bool
	unprivileged    *bool
	sentinel        *string
	truncate        *bool
	progress        *bool
	spinnerInterval *time.Duration
	debug           *bool
)

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:   "multilookup [flags] producers consumers results servicelog input...",
		Short: "multilookup resolves the hostnames from a set of input files using concurrent producers and consumers",
		Long: `multilookup reads whitespace-separated hostnames from up to 10 input files
using 1-10 producers, and resolves them using 1-10 consumers. The resolved
"hostname,address" lines go into the results log, while each producer logs
the number of input files it serviced into the service-count log.`,
		Version: "0.9",
		Args:    cobra.MinimumNArgs(5),
		PersistentPreRunE: func(_ *cobra.Command, args []string) error {
			if *capacity < 1 || *capacity > 1024 {
				return fmt.Errorf("--capacity out of range [1..1024]")
			}
			if _, err := queueOrder(*order); err != nil {
				return err
			}
			if *netns != "" && *container != "" {
				return fmt.Errorf("--netns and --container are mutually exclusive")
			}
			if *netns != "" && *server == "" {
				return fmt.Errorf("--netns requires --server")
			}
			if *timeout < 0 {
				return fmt.Errorf("--timeout must not be negative")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			_, err := newConfig(args)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if *debug {
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			}
			cfg, err := newConfig(args)
			if err != nil {
				return err
			}
			// An interrupt lets all remaining hostnames fail quickly, yet
			// they still get logged.
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return LookupAndReport(ctx, cmd.OutOrStdout(), cfg)
		},
	}
	// Sets up the flags.
	debug = rootCmd.PersistentFlags().Bool(
		"debug", false, "enable debugging output")
	capacity = rootCmd.PersistentFlags().Uint(
		"capacity", queue.DefaultCapacity, "capacity of the hostname queue")
	order = rootCmd.PersistentFlags().String(
		"order", "fifo", "order of resolving queued hostnames, either \"fifo\" or \"lifo\"")
	server = rootCmd.PersistentFlags().String(
		"server", "", "DNS server address to query instead of using the system resolver")
	container = rootCmd.PersistentFlags().String(
		"container", "", "resolve from inside the network namespace of this Docker container")
	dockerHost = rootCmd.PersistentFlags().String(
		"host", "", "Docker daemon API endpoint (default \"unix:///var/run/docker.sock\")")
	netns = rootCmd.PersistentFlags().String(
		"netns", "", "resolve from inside the network namespace referenced by this path")
	timeout = rootCmd.PersistentFlags().Duration(
		"timeout", 2*time.Second, "DNS query timeout when using --server or --container")
	cache = rootCmd.PersistentFlags().Bool(
		"cache", false, "resolve duplicate hostnames and check duplicate addresses only once")
	verify = rootCmd.PersistentFlags().Bool(
		"verify", false, "ping resolved addresses and log their reachability")
	unprivileged = rootCmd.PersistentFlags().Bool(
		"unprivileged", false, "use unprivileged UDP pings instead of ICMP")
	sentinel = rootCmd.PersistentFlags().String(
		"sentinel", "", "address to log for hostnames failing to resolve")
	truncate = rootCmd.PersistentFlags().Bool(
		"truncate", false, "empty the results and service-count logs first")
	progress = rootCmd.PersistentFlags().Bool(
		"progress", false, "show progress while resolving")
	spinnerInterval = rootCmd.PersistentFlags().Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	return
}

// newConfig returns the lookup configuration from the positional arguments
// and flags.
func newConfig(args []string) (lookup.Config, error) {
	if len(args) < 5 {
		return lookup.Config{}, fmt.Errorf("requires at least 5 arg(s), only received %d", len(args))
	}
	producers, err := strconv.Atoi(args[0])
	if err != nil {
		return lookup.Config{}, fmt.Errorf("invalid number of producers %q", args[0])
	}
	consumers, err := strconv.Atoi(args[1])
	if err != nil {
		return lookup.Config{}, fmt.Errorf("invalid number of consumers %q", args[1])
	}
	ord, err := queueOrder(*order)
	if err != nil {
		return lookup.Config{}, err
	}
	cfg := lookup.Config{
		Producers:     producers,
		Consumers:     consumers,
		ResultsPath:   args[2],
		ServicePath:   args[3],
		Inputs:        args[4:],
		QueueCapacity: int(*capacity),
		Order:         ord,
		Sentinel:      *sentinel,
		Truncate:      *truncate,
	}
	if err := cfg.Validate(); err != nil {
		return lookup.Config{}, err
	}
	if len(*sentinel) > types.MaxNameLength {
		return lookup.Config{}, fmt.Errorf("--sentinel too long")
	}
	return cfg, nil
}

// queueOrder returns the queue order for the specified clear-text name.
func queueOrder(name string) (queue.Order, error) {
	switch strings.ToLower(name) {
	case "fifo":
		return queue.FIFO, nil
	case "lifo":
		return queue.LIFO, nil
	}
	return queue.FIFO, fmt.Errorf("--order must be either \"fifo\" or \"lifo\", got %q", name)
}
