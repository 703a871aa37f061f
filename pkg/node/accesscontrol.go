package node

import "github.com/ockamio/ockam/pkg/wire"

// AccessControl decides whether a message may be delivered to a worker's
// HandleMessage/Process. It runs each time a message is pulled off the
// mailbox, before its payload is decoded, so the worker never sees a
// message it rejects. The default, AllowAll, authorizes everything.
//
// SetAccessControl on a running worker takes effect from the next message
// pulled off the mailbox; a message already past the check is not judged
// again.
type AccessControl interface {
	IsAuthorized(msg wire.LocalMessage) bool
}

type allowAllAccessControl struct{}

func (allowAllAccessControl) IsAuthorized(wire.LocalMessage) bool { return true }

// AllowAll authorizes every message. It is the default for StartWorker and
// StartProcessor when no AccessControl is given.
var AllowAll AccessControl = allowAllAccessControl{}

// FuncAccessControl adapts a plain predicate function to AccessControl.
type FuncAccessControl func(msg wire.LocalMessage) bool

func (f FuncAccessControl) IsAuthorized(msg wire.LocalMessage) bool { return f(msg) }
