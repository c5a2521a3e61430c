// Package ws serves the command surface over a websocket. Each text
// frame from the client is one request envelope; the server answers with
// a response frame and pushes notification frames as state changes.
// Responses carry a "status" field and notifications a "kind" field, so
// clients tell them apart without an outer wrapper.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quillback/waystone/internal/protocol"
	"github.com/quillback/waystone/internal/service"
)

const (
	writeTimeout = 5 * time.Second
	// readTimeout bounds idle connections; pings from the client reset it.
	readTimeout = 5 * time.Minute
	// outBuffer is the per-connection frame buffer. A connection that
	// cannot drain it loses notification frames, never response frames.
	outBuffer = 64
)

// Server bridges websocket connections to the service loop.
type Server struct {
	svc    *service.Service
	logger *slog.Logger

	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewServer wires a websocket front end to a running service.
func NewServer(svc *service.Service, logger *slog.Logger) *Server {
	return &Server{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: make(map[chan []byte]struct{}),
	}
}

// Run pumps service notifications to every connected client until ctx is
// cancelled. Call it in its own goroutine, alongside service.Run.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-s.svc.Notifications():
			frame, err := json.Marshal(n)
			if err != nil {
				continue
			}
			s.broadcast(frame)
		}
	}
}

func (s *Server) broadcast(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for out := range s.subs {
		select {
		case out <- frame:
		default:
			// Notification frames are droppable: the client resyncs from
			// the snapshot of its next response.
			s.logger.Warn("notification frame dropped: slow websocket client")
		}
	}
}

func (s *Server) subscribe(out chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[out] = struct{}{}
}

func (s *Server) unsubscribe(out chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, out)
}

// Handler returns the upgrade endpoint.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		out := make(chan []byte, outBuffer)
		s.subscribe(out)
		defer s.unsubscribe(out)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine: the only goroutine that writes this conn.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case frame := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
						cancel()
						return
					}
				}
			}
		}()
		defer wg.Wait()

		// Reader loop: one request per frame, submitted in arrival order.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			s.handleFrame(ctx, msg, out)
		}
	}
}

// handleFrame decodes one request, submits it, and queues the response.
// Responses are never dropped: enqueueing blocks until the writer drains
// or the connection dies.
func (s *Server) handleFrame(ctx context.Context, msg []byte, out chan []byte) {
	var req protocol.Request
	if err := json.Unmarshal(msg, &req); err != nil {
		s.send(ctx, out, protocol.Failed(&protocol.Request{ID: req.ID}, "bad_request", "frame is not a request envelope"))
		return
	}
	if req.ID == "" {
		req.ID = s.svc.NewRequestID()
	}

	resp, err := s.svc.Submit(ctx, &req)
	if err != nil {
		resp = protocol.Failed(&req, "unavailable", err.Error())
	}
	s.send(ctx, out, resp)
}

func (s *Server) send(ctx context.Context, out chan []byte, resp *protocol.Response) {
	frame, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("response marshal failed", "error", err)
		return
	}
	select {
	case out <- frame:
	case <-ctx.Done():
	}
}
