package tcp

import (
	"errors"
	"net"

	"github.com/ockamio/ockam/pkg/node"
)

// Listener accepts inbound TCP connections and starts a worker pair for
// each one, grounded on the teacher's TCPServer accept loop: a blocking
// Accept call in its own goroutine, a clean-shutdown path that treats
// "listener closed" as expected once Close has been called.
type Listener struct {
	ln     net.Listener
	router *Router
	parent *node.Context
	cfg    Config
	closed chan struct{}
}

// Listen binds addr and starts accepting connections in the background.
// Each accepted connection gets its own worker pair, registered with
// router under its remote address as the peer key.
func Listen(parent *node.Context, router *Router, addr string, cfg Config) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l := &Listener{ln: ln, router: router, parent: parent, cfg: cfg, closed: make(chan struct{})}
	go l.acceptLoop()
	return l, nil
}

func (l *Listener) acceptLoop() {
	logger := l.parent.Node().Logger()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.closed:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warnf("tcp listener %s: accept error: %v", l.ln.Addr(), err)
			continue
		}

		peer := conn.RemoteAddr().String()
		pair, err := StartWorkerPair(l.parent, conn, peer, l.cfg)
		if err != nil {
			logger.Errorf("tcp listener %s: failed to start worker pair for %s: %v", l.ln.Addr(), peer, err)
			_ = conn.Close()
			continue
		}
		l.router.Accept(peer, pair)
	}
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections. Already-established worker pairs
// keep running.
func (l *Listener) Close() error {
	close(l.closed)
	return l.ln.Close()
}
