// Package addr implements Ockam's address and route data model: the
// (transport_type, value) pair that names any entity reachable inside or
// outside a node, and the ordered Route used to describe multi-hop paths
// between them.
package addr

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Local is the transport type reserved for in-process addresses. A nonzero
// transport type selects a registered transport router (TCP, WebSocket, ...).
const Local uint8 = 0

// Address names an entity inside or outside a node. Addresses are cheap to
// copy and never carry ownership of the thing they name — only the router
// knows how to turn one into a live mailbox or transport connection.
type Address struct {
	TransportType uint8  `cbor:"0,keyasint"`
	Value         string `cbor:"1,keyasint"`
}

// New constructs an address for a given transport type.
func New(transportType uint8, value string) Address {
	return Address{TransportType: transportType, Value: value}
}

// NewLocal constructs a local (in-process) address with an explicit name.
func NewLocal(value string) Address {
	return Address{TransportType: Local, Value: value}
}

// RandomLocal generates a fresh, collision-free local address.
func RandomLocal() Address {
	return Address{TransportType: Local, Value: uuid.New().String()}
}

// IsLocal reports whether this address names an in-process entity.
func (a Address) IsLocal() bool {
	return a.TransportType == Local
}

// Equal compares both the transport type and value.
func (a Address) Equal(b Address) bool {
	return a.TransportType == b.TransportType && a.Value == b.Value
}

// String renders "type#value" for nonzero transport types and a bare value
// for local addresses, matching the corpus's terse address formatting.
func (a Address) String() string {
	if a.IsLocal() {
		return a.Value
	}
	return fmt.Sprintf("%d#%s", a.TransportType, a.Value)
}

// Set is an ordered, non-empty collection of addresses that all name the
// same worker. The first element is the primary address; the rest are
// aliases under which the same worker may also be addressed.
type Set []Address

// NewSet builds an address set from one or more addresses. Panics on an
// empty slice — a worker without any address cannot be registered.
func NewSet(addrs ...Address) Set {
	if len(addrs) == 0 {
		panic("addr: address set must not be empty")
	}
	out := make(Set, len(addrs))
	copy(out, addrs)
	return out
}

// Primary returns the first, canonical address of the set.
func (s Set) Primary() Address {
	return s[0]
}

// Aliases returns every address in the set after the primary one.
func (s Set) Aliases() []Address {
	if len(s) <= 1 {
		return nil
	}
	return s[1:]
}

// Contains reports whether any member of the set equals a.
func (s Set) Contains(a Address) bool {
	for _, member := range s {
		if member.Equal(a) {
			return true
		}
	}
	return false
}

func (s Set) String() string {
	parts := make([]string, len(s))
	for i, a := range s {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}
