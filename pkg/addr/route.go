package addr

import "strings"

// Route is an ordered list of addresses describing the hops a message must
// take to reach its destination. A message's onward_route is consumed one
// hop at a time as it is forwarded; its return_route grows as it passes
// through each hop, so a reply can retrace the path.
type Route []Address

// NewRoute builds a route from an explicit hop list.
func NewRoute(hops ...Address) Route {
	r := make(Route, len(hops))
	copy(r, hops)
	return r
}

// Empty reports whether the route has no remaining hops.
func (r Route) Empty() bool {
	return len(r) == 0
}

// Next returns the first hop of the route, the one a router resolves next.
// Panics on an empty route — callers must check Empty first.
func (r Route) Next() Address {
	return r[0]
}

// Step consumes the first hop, returning the remaining route. Step on an
// empty route returns an empty route unchanged.
func (r Route) Step() Route {
	if len(r) == 0 {
		return r
	}
	return r[1:]
}

// Prepend returns a new route with the given addresses inserted at the
// front, preserving their order. Used when a worker forwards a message with
// its own return address first in line.
func (r Route) Prepend(addrs ...Address) Route {
	out := make(Route, 0, len(addrs)+len(r))
	out = append(out, addrs...)
	out = append(out, r...)
	return out
}

// Append returns a new route with the given addresses added at the end.
func (r Route) Append(addrs ...Address) Route {
	out := make(Route, 0, len(r)+len(addrs))
	out = append(out, r...)
	out = append(out, addrs...)
	return out
}

// Clone returns an independent copy of the route.
func (r Route) Clone() Route {
	out := make(Route, len(r))
	copy(out, r)
	return out
}

func (r Route) String() string {
	parts := make([]string, len(r))
	for i, a := range r {
		parts[i] = a.String()
	}
	return strings.Join(parts, " => ")
}
