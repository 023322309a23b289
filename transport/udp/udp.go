// Package udp implements swimcore.Transport over a real UDP socket. It
// adds no reliability, ordering, retries, encryption, or authentication
// beyond what the operating system's UDP stack already provides — the
// protocol's best-effort design is preserved end to end, not patched over
// by the transport.
package udp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"swimcore"
	"swimcore/internal/adapter/fake/fault"
)

// AddressBook resolves a swimcore.Address to the real UDP endpoint that
// owns it. The wire protocol's Address is a synthetic 6-byte handle, not a
// dialable string, so something has to bridge the two; in a real
// deployment this would be backed by the bootstrap/introducer responses,
// but for the scope here it is supplied up front by the CLI.
type AddressBook interface {
	Resolve(addr swimcore.Address) (*net.UDPAddr, error)
}

// StaticBook is an AddressBook backed by a fixed map, as used by the
// single-process CLI demo where every peer's endpoint is known at
// startup.
type StaticBook map[swimcore.Address]*net.UDPAddr

func (b StaticBook) Resolve(addr swimcore.Address) (*net.UDPAddr, error) {
	udpAddr, ok := b[addr]
	if !ok {
		return nil, fmt.Errorf("udp: no known endpoint for %s", addr)
	}
	return udpAddr, nil
}

// Transport binds one UDP socket and implements swimcore.Transport for
// the single local address it serves. A background goroutine reads
// datagrams off the wire and appends them to an in-memory inbox; it does
// no decoding and no merge work, keeping the node's Tick the only place
// protocol logic runs.
type Transport struct {
	self     Address
	conn     *net.UDPConn
	book     AddressBook
	injector *fault.Injector

	mu    sync.Mutex
	inbox [][]byte

	closeOnce sync.Once
	done      chan struct{}
}

// Option configures optional Transport behavior at Listen time.
type Option func(*Transport)

// WithInjector attaches a fault.Injector whose "udp.send" point is
// evaluated at the top of every Send, letting tests force deterministic
// socket failures without touching the real network.
func WithInjector(injector *fault.Injector) Option {
	return func(t *Transport) {
		t.injector = injector
	}
}

// Address pairs a swimcore.Address with the local UDP endpoint it binds.
type Address struct {
	Logical swimcore.Address
	Bind    *net.UDPAddr
}

// Listen opens a UDP socket bound to addr.Bind and starts the background
// reader. Close stops the reader and releases the socket.
func Listen(addr Address, book AddressBook, opts ...Option) (*Transport, error) {
	conn, err := net.ListenUDP("udp", addr.Bind)
	if err != nil {
		return nil, swimcore.TransportError("listen", err)
	}
	t := &Transport{
		self: addr,
		conn: conn,
		book: book,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.readLoop()
	return t, nil
}

func (t *Transport) readLoop() {
	buf := make([]byte, 2048)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				return
			}
		}
		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		t.mu.Lock()
		t.inbox = append(t.inbox, datagram)
		t.mu.Unlock()
	}
}

// Send resolves to and writes payload as a single UDP datagram. Errors
// here are genuine local failures (closed socket, unresolvable address);
// the datagram being lost in flight on the wire looks identical to a
// successful Send, matching the protocol's best-effort contract.
func (t *Transport) Send(ctx context.Context, from, to swimcore.Address, payload []byte) error {
	if t.injector != nil {
		if err := t.injector.Eval("udp.send", from, to); err != nil {
			return swimcore.TransportError("send", err)
		}
	}
	udpAddr, err := t.book.Resolve(to)
	if err != nil {
		return swimcore.TransportError("resolve", err)
	}
	if _, err := t.conn.WriteToUDP(payload, udpAddr); err != nil {
		return swimcore.TransportError("write", err)
	}
	return nil
}

// RecvInto drains every datagram buffered by the background reader since
// the last call. It never blocks.
func (t *Transport) RecvInto(addr swimcore.Address, queue [][]byte) ([][]byte, error) {
	if addr != t.self.Logical {
		return queue, fmt.Errorf("udp: transport serves %s, not %s", t.self.Logical, addr)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	queue = append(queue, t.inbox...)
	t.inbox = nil
	return queue, nil
}

// Close stops the reader goroutine and closes the underlying socket.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}
