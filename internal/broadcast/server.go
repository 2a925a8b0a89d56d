// Package broadcast implements the TCP fan-out server (spec.md §4.D): a
// single listener accepts clients, and every line handed to Broadcast is
// delivered to all currently connected clients as newline-terminated
// JSON. Delivery is best-effort and never blocks the caller: a slow or
// dead client is pruned, never waited on.
package broadcast

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
)

const (
	// sendBufferBytes and recvBufferBytes match spec.md §4.D's socket
	// tuning: 64 KiB send and receive buffers on every accepted client.
	sendBufferBytes = 64 * 1024
	recvBufferBytes = 64 * 1024

	// outboxCapacity bounds how far a single client's writer goroutine
	// may lag behind Broadcast before that client is treated as stalled
	// and dropped. It stands in for the kernel's own send-buffer
	// backpressure once a write is handed off to the writer goroutine.
	outboxCapacity = 4096
)

// ClientInfo is a diagnostic snapshot of one connected client, returned
// by Server.Clients. It carries no live reference to the connection.
type ClientInfo struct {
	ID         string
	RemoteAddr string
}

// client holds one accepted connection plus the bookkeeping the read
// probe and the per-client writer goroutine need. Membership in
// Server.clients is guarded by s.mu; outbox and stop are safe for
// concurrent use by themselves.
//
// Every write to a client goes through outbox, drained in order by one
// long-lived writer goroutine (writeLoop), so that two Broadcast calls
// enqueuing to the same client write in the order they were enqueued —
// unlike handing each write to its own freshly spawned goroutine, which
// gives Go no ordering guarantee between them.
type client struct {
	id       string
	conn     *net.TCPConn
	outbox   chan []byte
	stop     chan struct{}
	stopOnce sync.Once
}

func (c *client) requestStop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Server is a single-listener TCP broadcaster. The zero Server is not
// usable; construct one with New. A Server is not copyable.
type Server struct {
	mu       sync.Mutex
	clients  map[string]*client
	listener net.Listener

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New constructs an unstarted Server.
func New() *Server {
	return &Server{
		clients: make(map[string]*client),
		done:    make(chan struct{}),
	}
}

// Start binds to the given TCP port on the loopback interface and
// begins the accept loop in a background goroutine. Start returns once
// the listener is bound; accept runs asynchronously until Shutdown.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp4", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("broadcast: listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address. It is only valid after a
// successful Start.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				// Accept errors are non-fatal (spec.md §4.D): try again
				// unless the listener was closed by Shutdown.
				continue
			}
		}
		tcpConn, ok := conn.(*net.TCPConn)
		if !ok {
			conn.Close()
			continue
		}
		s.admit(tcpConn)
	}
}

// admit tunes a freshly accepted socket, registers it, and starts its
// read probe and its writer goroutine.
func (s *Server) admit(conn *net.TCPConn) {
	conn.SetNoDelay(true)
	conn.SetWriteBuffer(sendBufferBytes)
	conn.SetReadBuffer(recvBufferBytes)

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		outbox: make(chan []byte, outboxCapacity),
		stop:   make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	s.wg.Add(2)
	go s.readProbe(c)
	go s.writeLoop(c)
}

// readProbe exists purely to observe peer-closed or reset conditions
// (spec.md §4.D); any bytes read are discarded and the probe rearms
// until the connection errors, at which point the client is removed.
func (s *Server) readProbe(c *client) {
	defer s.wg.Done()
	var buf [1]byte
	for {
		_, err := c.conn.Read(buf[:])
		if err != nil {
			s.remove(c.id)
			return
		}
	}
}

// writeLoop is the sole writer of c.conn: every message Broadcast
// enqueues for this client is written in the order it was enqueued. A
// write failure removes the client; requestStop lets remove tear this
// goroutine down when the client is dropped for any other reason (read
// probe error, full outbox, or Shutdown).
func (s *Server) writeLoop(c *client) {
	defer s.wg.Done()
	for {
		select {
		case msg := <-c.outbox:
			if _, err := c.conn.Write(msg); err != nil {
				s.remove(c.id)
				return
			}
		case <-c.stop:
			return
		}
	}
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	c, ok := s.clients[id]
	if ok {
		delete(s.clients, id)
	}
	s.mu.Unlock()
	if ok {
		c.requestStop()
		c.conn.Close()
	}
}

// Broadcast delivers line followed by a newline to every currently
// connected client. Broadcast itself never blocks: it enqueues onto
// each client's outbox (spec.md §4.D: "the call itself does not wait
// for transmission to complete"; §5: "submits writes asynchronously and
// does not wait") and returns, leaving the actual socket write to that
// client's writer goroutine. Because the enqueue happens synchronously
// within Broadcast rather than being handed to a newly spawned
// goroutine, successive Broadcast calls enqueue — and so are written —
// in the order they were called (spec.md §8 scenario S4). A client
// whose outbox is already full is treated as stalled and dropped,
// standing in for the kernel send-buffer backpressure a blocking write
// would eventually hit.
func (s *Server) Broadcast(line []byte) {
	msg := make([]byte, len(line)+1)
	copy(msg, line)
	msg[len(line)] = '\n'

	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		select {
		case c.outbox <- msg:
		default:
			s.remove(c.id)
		}
	}
}

// Clients returns a diagnostic snapshot of currently connected
// sessions. The returned slice is a copy and does not reflect later
// connects or disconnects.
func (s *Server) Clients() []ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, ClientInfo{ID: c.id, RemoteAddr: c.conn.RemoteAddr().String()})
	}
	return out
}

// Shutdown stops accepting, closes every connected client, and waits
// for the accept loop and every read probe to return. Shutdown is
// idempotent.
func (s *Server) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			err = s.listener.Close()
		}
		s.mu.Lock()
		ids := make([]string, 0, len(s.clients))
		for id := range s.clients {
			ids = append(ids, id)
		}
		s.mu.Unlock()
		for _, id := range ids {
			s.remove(id)
		}
		s.wg.Wait()
	})
	return err
}
