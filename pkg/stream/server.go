// Package stream broadcasts solved mechanism frames to websocket
// clients during an input sweep, adapted from the teacher's
// pkg/moonraker client-connection lifecycle (upgrade, per-client
// read/write pumps, buffered send channel) with the Moonraker
// JSON-RPC method dispatch and printer-object bookkeeping stripped
// out — there is nothing to query or subscribe to here, only frames
// to push.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"mechlink-go/pkg/pool"
)

// Server broadcasts Frames to every connected websocket client.
type Server struct {
	addr string

	httpServer *http.Server
	upgrader   websocket.Upgrader

	clientMu sync.RWMutex
	clients  map[int64]*client
	nextID   int64

	running atomic.Bool

	onClientCount func(n int)
}

// New creates a Server listening at addr (e.g. ":8765"). onClientCount,
// if non-nil, is called whenever a client connects or disconnects with
// the new client count — the caller wires this to a metrics gauge.
func New(addr string, onClientCount func(n int)) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[int64]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		onClientCount: onClientCount,
	}
}

// Start serves the /stream websocket endpoint until the process exits
// or Shutdown is called. It blocks like http.Server.ListenAndServe.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	})

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	s.running.Store(true)
	log.Printf("stream: listening on %s", s.addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown closes every client connection and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.clientMu.Lock()
	for _, c := range s.clients {
		c.close()
	}
	s.clients = make(map[int64]*client)
	s.clientMu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ClientCount returns the number of currently connected clients.
func (s *Server) ClientCount() int {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return len(s.clients)
}

// Broadcast sends a frame to every connected client. Clients whose
// send buffer is full are dropped rather than blocking the sweep.
func (s *Server) Broadcast(f Frame) {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	for _, c := range s.clients {
		c.send(f)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: upgrade error: %v", err)
		return
	}

	c := &client{
		id:     atomic.AddInt64(&s.nextID, 1),
		conn:   conn,
		sendCh: make(chan Frame, 64),
		done:   make(chan struct{}),
	}

	s.clientMu.Lock()
	s.clients[c.id] = c
	s.clientMu.Unlock()
	s.reportClientCount()

	go c.writePump()
	c.readPump() // blocks until the connection closes

	s.clientMu.Lock()
	delete(s.clients, c.id)
	s.clientMu.Unlock()
	s.reportClientCount()
}

func (s *Server) reportClientCount() {
	if s.onClientCount != nil {
		s.onClientCount(s.ClientCount())
	}
}

// client is one connected websocket peer.
type client struct {
	id     int64
	conn   *websocket.Conn
	sendCh chan Frame
	done   chan struct{}
	mu     sync.Mutex
}

func (c *client) send(f Frame) {
	select {
	case c.sendCh <- f:
	case <-c.done:
	default:
		log.Printf("stream: dropping frame for client %d, send buffer full", c.id)
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return
	default:
		close(c.done)
	}
	c.conn.Close()
}

// readPump discards inbound traffic (this stream is push-only) and
// exits when the client disconnects or sends a close frame.
func (c *client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(4096)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case f, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			buf := pool.GetByteBuffer()
			if err := json.NewEncoder(buf).Encode(f); err != nil {
				pool.PutByteBuffer(buf)
				continue
			}
			err := c.conn.WriteMessage(websocket.TextMessage, buf.Bytes())
			pool.PutByteBuffer(buf)
			if err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
