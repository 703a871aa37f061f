package router

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// StopMode selects how StopNode tears down the registry.
type StopMode int

const (
	// Immediate closes every mailbox at once with no ordering guarantee
	// and does not wait for owning goroutines to exit.
	Immediate StopMode = iota
	// Graceful closes clusters in reverse-registration order, waiting up
	// to the given deadline for each cluster's workers to fully exit
	// before moving to the next cluster.
	Graceful
)

// reservedClusterPrefixes are drained last during a graceful stop,
// regardless of when they were registered, so node-internal plumbing
// (the router's own bookkeeping workers, transport listeners) outlives
// the application workers that depend on it while they shut down.
var reservedClusterPrefixes = []string{"_internals.", "ockam."}

func isReservedCluster(name string) bool {
	for _, prefix := range reservedClusterPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// StopNode tears down every registered worker and processor. In Graceful
// mode, gracePeriod bounds how long each cluster is given to finish before
// the next cluster begins; exceeding it for one cluster does not block
// subsequent clusters, but is reported as an error once all have been
// attempted.
func (r *Router) StopNode(mode StopMode, gracePeriod time.Duration) error {
	r.mu.Lock()
	order := append([]string(nil), r.clusterOrder...)
	clusterSnapshots := make(map[string][]*entry, len(r.clusters))
	for name, members := range r.clusters {
		clusterSnapshots[name] = append([]*entry(nil), members...)
	}
	r.mu.Unlock()

	if mode == Immediate {
		for _, members := range clusterSnapshots {
			for _, e := range members {
				e.mailbox.Close()
			}
		}
		return nil
	}

	normal := make([]string, 0, len(order))
	reserved := make([]string, 0)
	for _, name := range order {
		if isReservedCluster(name) {
			reserved = append(reserved, name)
		} else {
			normal = append(normal, name)
		}
	}
	shutdownOrder := append(reverse(normal), reverse(reserved)...)

	var firstErr error
	for _, name := range shutdownOrder {
		members := clusterSnapshots[name]
		if len(members) == 0 {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), gracePeriod)
		g, gctx := errgroup.WithContext(ctx)
		for _, e := range members {
			e := e
			g.Go(func() error {
				e.mailbox.Close()
				select {
				case <-e.done:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		err := g.Wait()
		cancel()
		if err != nil {
			r.logger.Warnf("cluster %q did not finish shutdown within %s: %v", name, gracePeriod, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
