// Package service runs the engine behind a single-writer command loop.
//
// Transports submit protocol requests from any goroutine; the Run loop
// dequeues them in FIFO order and applies them to the engine one at a
// time. All engine mutation happens in the Run goroutine, which is what
// makes the engine's unsynchronized internals safe. Notifications fan
// out on a buffered channel; a slow consumer loses frames rather than
// stalling the loop.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quillback/waystone/internal/engine"
	"github.com/quillback/waystone/internal/protocol"
)

// DefaultNotificationBuffer is the capacity of the notification channel.
const DefaultNotificationBuffer = 64

// ErrClosed is returned by Submit after the service has stopped.
var ErrClosed = fmt.Errorf("service is closed")

// Service owns an Engine and serializes access to it.
type Service struct {
	logger *slog.Logger
	eng    *engine.Engine
	queue  *commandQueue
	ids    protocol.IDGenerator

	metrics *Metrics

	notifications chan protocol.Notification
	allowTest     bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger; it is also handed to the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithIDGenerator sets the generator used when a transport needs a
// request ID minted server-side.
func WithIDGenerator(gen protocol.IDGenerator) Option {
	return func(s *Service) { s.ids = gen }
}

// WithTestCommands enables the test-only commands. Production serve
// configurations leave them rejected.
func WithTestCommands() Option {
	return func(s *Service) { s.allowTest = true }
}

// New builds a Service and its engine.
func New(engineOpts []engine.Option, opts ...Option) *Service {
	s := &Service{
		logger:        slog.Default(),
		queue:         newCommandQueue(),
		ids:           protocol.UUIDv7Generator{},
		metrics:       newServiceMetrics(),
		notifications: make(chan protocol.Notification, DefaultNotificationBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}

	engineOpts = append(engineOpts,
		engine.WithLogger(s.logger),
		engine.WithNotify(s.onEvent),
	)
	s.eng = engine.New(engineOpts...)
	return s
}

// Engine exposes the owned engine for read-only wiring (metrics
// registration, CLI inspection). Mutations must go through Submit.
func (s *Service) Engine() *engine.Engine { return s.eng }

// Metrics returns the service's Prometheus collectors for registration.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Notifications returns the push channel. Frames are dropped, with a
// warning, when the buffer is full.
func (s *Service) Notifications() <-chan protocol.Notification {
	return s.notifications
}

// NewRequestID mints a request ID for transports whose clients did not
// supply one.
func (s *Service) NewRequestID() string { return s.ids.Generate() }

// onEvent runs inside the Run goroutine, right after a mutation.
func (s *Service) onEvent(kind engine.EventKind) {
	n := protocol.Notification{
		Kind:     string(kind),
		Revision: s.eng.Snapshot().Revision,
	}
	select {
	case s.notifications <- n:
		s.metrics.notifications.Inc()
	default:
		s.metrics.dropped.Inc()
		s.logger.Warn("notification dropped: buffer full", "kind", n.Kind)
	}
}

// Submit enqueues a request and waits for its response. Safe from any
// goroutine. Returns ctx.Err() if the caller gives up first and ErrClosed
// if the service has stopped.
func (s *Service) Submit(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	sub := submission{req: req, reply: make(chan *protocol.Response, 1)}
	if !s.queue.enqueue(sub) {
		return nil, ErrClosed
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-sub.reply:
		return resp, nil
	}
}

// Run processes submissions until ctx is cancelled or Stop is called.
// Must be called from exactly one goroutine: every engine mutation
// happens here.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("service starting")

	for {
		sub, ok := s.queue.tryDequeue()
		if ok {
			resp := s.dispatch(sub.req)
			s.metrics.observeCommand(resp)
			sub.reply <- resp
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("service stopping: context cancelled")
			s.queue.close()
			s.drain()
			return ctx.Err()

		case <-s.queue.wait():
			if s.queue.len() == 0 {
				s.logger.Info("service stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue, which makes Run return once it has drained.
func (s *Service) Stop() {
	s.queue.close()
}

// drain rejects submissions left behind after shutdown so no caller
// blocks forever on a reply.
func (s *Service) drain() {
	for {
		sub, ok := s.queue.tryDequeue()
		if !ok {
			return
		}
		sub.reply <- protocol.Failed(sub.req, "shutdown", "service is stopping")
	}
}
