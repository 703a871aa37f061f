// Package router implements the node's address registry: the single
// owning authority over which addresses exist, which mailbox backs each
// one, and how a message bound for a non-local address gets to the right
// transport sender. Every mutation of the registry goes through the
// Router's own mutex, giving callers a single total order over
// registration/deregistration without needing a dedicated goroutine loop —
// the teacher's event bus achieves the same serialization with its
// consumers-map mutex.
package router

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ockamio/ockam/pkg/addr"
	"github.com/ockamio/ockam/pkg/concurrency"
	"github.com/ockamio/ockam/pkg/logging"
)

// TransportRouter resolves a non-local address to the address of the local
// worker (a transport sender) responsible for getting a message onto the
// wire for that transport type. Transport packages (tcp, ws, natsbus)
// register one of these per transport type they own.
type TransportRouter interface {
	Resolve(target addr.Address) (addr.Address, error)
}

// entry is one registered worker or processor.
type entry struct {
	set      addr.Set
	mailbox  concurrency.Mailbox
	done     <-chan struct{}
	bare     bool
	cluster  string
	readyCh  chan struct{}
	readyset int32
}

// Router owns the node's address registry.
type Router struct {
	mu               sync.RWMutex
	byAddress        map[string]*entry
	clusterOrder     []string
	clusters         map[string][]*entry
	transportRouters map[uint8]TransportRouter
	logger           logging.Logger
}

// New creates an empty Router.
func New(logger logging.Logger) *Router {
	if logger == nil {
		logger = logging.New()
	}
	return &Router{
		byAddress:        make(map[string]*entry),
		clusters:         make(map[string][]*entry),
		transportRouters: make(map[uint8]TransportRouter),
		logger:           logger,
	}
}

// RegisterTransportRouter binds a TransportRouter to a transport type. A
// transport type has at most one registered router for the node's
// lifetime — once bound it is immutable, so a second registration for the
// same type fails rather than silently replacing the first.
func (r *Router) RegisterTransportRouter(transportType uint8, tr TransportRouter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transportRouters[transportType]; exists {
		return errTransportAlreadyBound(transportType)
	}
	r.transportRouters[transportType] = tr
	return nil
}

// StartWorker registers a new worker or processor under one or more
// addresses, all inserted atomically — either every address in the set
// is free and all are registered, or none are. done is closed by the
// owning goroutine once it has fully exited (after its shutdown hook has
// run); StopNode(Graceful) waits on it. bare marks a registry entry with
// no backing event loop (created by new_context for synchronous
// send/receive use).
func (r *Router) StartWorker(set addr.Set, mailbox concurrency.Mailbox, done <-chan struct{}, cluster string, bare bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range set {
		if _, exists := r.byAddress[a.String()]; exists {
			return errAddressInUse(a.String())
		}
	}

	e := &entry{
		set:     set,
		mailbox: mailbox,
		done:    done,
		bare:    bare,
		cluster: cluster,
		readyCh: make(chan struct{}),
	}
	for _, a := range set {
		r.byAddress[a.String()] = e
	}
	if _, ok := r.clusters[cluster]; !ok {
		r.clusterOrder = append(r.clusterOrder, cluster)
	}
	r.clusters[cluster] = append(r.clusters[cluster], e)
	return nil
}

// StartProcessor is StartWorker under a different name for symmetry with
// the node package's Worker/Processor split; the registry treats both
// identically.
func (r *Router) StartProcessor(set addr.Set, mailbox concurrency.Mailbox, done <-chan struct{}, cluster string) error {
	return r.StartWorker(set, mailbox, done, cluster, false)
}

// Stop removes every address of the entry named by primary from the
// registry and closes its mailbox. It does not wait for the owning
// goroutine to exit; callers needing that should await the done channel
// captured at StartWorker time, or use StopNode(Graceful).
func (r *Router) Stop(primary addr.Address) error {
	r.mu.Lock()
	e, ok := r.byAddress[primary.String()]
	if !ok {
		r.mu.Unlock()
		return errNoRoute(primary.String())
	}
	for _, a := range e.set {
		delete(r.byAddress, a.String())
	}
	members := r.clusters[e.cluster]
	for i, member := range members {
		if member == e {
			r.clusters[e.cluster] = append(members[:i], members[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	e.mailbox.Close()
	return nil
}

// Mailbox returns the mailbox registered for a local address.
func (r *Router) Mailbox(a addr.Address) (concurrency.Mailbox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byAddress[a.String()]
	if !ok {
		return nil, errNoRoute(a.String())
	}
	return e.mailbox, nil
}

// Resolve finds the mailbox a message addressed to target should be
// delivered to. For a local address this is direct. For a transport
// address it asks the registered TransportRouter for that transport type
// for the local sender worker's address, then resolves that — the
// message must be wrapped (framed and handed to the sender worker as an
// opaque payload) rather than delivered as-is, which needsWrapping
// reports.
func (r *Router) Resolve(target addr.Address) (mailbox concurrency.Mailbox, needsWrapping bool, err error) {
	if target.IsLocal() {
		mb, err := r.Mailbox(target)
		return mb, false, err
	}

	r.mu.RLock()
	tr, ok := r.transportRouters[target.TransportType]
	r.mu.RUnlock()
	if !ok {
		return nil, false, errNoTransport(target.TransportType)
	}

	local, err := tr.Resolve(target)
	if err != nil {
		return nil, false, err
	}
	mb, err := r.Mailbox(local)
	return mb, true, err
}

// ListWorkers returns the primary address of every registered entry.
func (r *Router) ListWorkers() []addr.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[*entry]bool)
	out := make([]addr.Address, 0, len(r.byAddress))
	for _, e := range r.byAddress {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e.set.Primary())
	}
	return out
}

// SetCluster moves an already-registered entry to a different cluster.
func (r *Router) SetCluster(primary addr.Address, cluster string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byAddress[primary.String()]
	if !ok {
		return errNoRoute(primary.String())
	}
	members := r.clusters[e.cluster]
	for i, member := range members {
		if member == e {
			r.clusters[e.cluster] = append(members[:i], members[i+1:]...)
			break
		}
	}
	e.cluster = cluster
	if _, ok := r.clusters[cluster]; !ok {
		r.clusterOrder = append(r.clusterOrder, cluster)
	}
	r.clusters[cluster] = append(r.clusters[cluster], e)
	return nil
}

// SetReady marks an entry ready, unblocking any WaitFor call on it.
// Idempotent.
func (r *Router) SetReady(primary addr.Address) error {
	r.mu.RLock()
	e, ok := r.byAddress[primary.String()]
	r.mu.RUnlock()
	if !ok {
		return errNoRoute(primary.String())
	}
	if atomic.CompareAndSwapInt32(&e.readyset, 0, 1) {
		close(e.readyCh)
	}
	return nil
}

// GetReady reports whether the entry named by primary has been marked
// ready.
func (r *Router) GetReady(primary addr.Address) (bool, error) {
	r.mu.RLock()
	e, ok := r.byAddress[primary.String()]
	r.mu.RUnlock()
	if !ok {
		return false, errNoRoute(primary.String())
	}
	return atomic.LoadInt32(&e.readyset) == 1, nil
}

// WaitFor blocks until the entry named by primary is marked ready or ctx
// is done.
func (r *Router) WaitFor(ctx context.Context, primary addr.Address) error {
	r.mu.RLock()
	e, ok := r.byAddress[primary.String()]
	r.mu.RUnlock()
	if !ok {
		return errNoRoute(primary.String())
	}
	select {
	case <-e.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
