package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/adapter/metrics"
	"github.com/YelzhanWeb/stall-orders/internal/app/registry"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

var ErrStopped = errors.New("hub stopped")

const sinkBuffer = 256

type request struct {
	session interfaces.Session
	command interfaces.Command
	kind    requestKind
	done    chan struct{}
}

type requestKind int

const (
	kindConnect requestKind = iota
	kindDisconnect
	kindCommand
)

// Service is the broadcast hub. Run owns the registry and the session set;
// everything else talks to it through requests so that a mutation and its
// broadcast finish before the next command is looked at.
type Service struct {
	registry interfaces.OrderRegistry
	logger   logger.Logger
	metrics  *metrics.Metrics
	sinks    []interfaces.EventPublisher

	sessions map[interfaces.Session]struct{}
	requests chan request
	sinkCh   chan interfaces.Event
	stopped  chan struct{}
}

func NewService(registry interfaces.OrderRegistry, metrics *metrics.Metrics, logger logger.Logger, sinks ...interfaces.EventPublisher) *Service {
	return &Service{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		sinks:    sinks,
		sessions: make(map[interfaces.Session]struct{}),
		requests: make(chan request),
		sinkCh:   make(chan interfaces.Event, sinkBuffer),
		stopped:  make(chan struct{}),
	}
}

// Run processes requests until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer close(s.stopped)

	sinkDone := make(chan struct{})
	go func() {
		defer close(sinkDone)
		s.forwardToSinks(ctx)
	}()

	s.logger.Info("hub_started", "Broadcast hub started", "", map[string]interface{}{
		"sinks": len(s.sinks),
	})

	for {
		select {
		case <-ctx.Done():
			<-sinkDone
			s.logger.Info("hub_stopped", "Broadcast hub stopped", "", map[string]interface{}{
				"sessions": len(s.sessions),
			})
			return ctx.Err()
		case req := <-s.requests:
			switch req.kind {
			case kindConnect:
				s.onConnect(req.session)
			case kindDisconnect:
				s.onDisconnect(req.session)
			case kindCommand:
				s.onCommand(req.session, req.command)
			}
			close(req.done)
		}
	}
}

// Connect registers the session and queues its init snapshot. It returns once
// the snapshot has been handed to the session.
func (s *Service) Connect(ctx context.Context, session interfaces.Session) error {
	return s.do(ctx, request{kind: kindConnect, session: session})
}

func (s *Service) Disconnect(ctx context.Context, session interfaces.Session) error {
	return s.do(ctx, request{kind: kindDisconnect, session: session})
}

// Submit hands a decoded command to the loop and waits until it has been applied
// and broadcast. Failed commands are dropped silently.
func (s *Service) Submit(ctx context.Context, session interfaces.Session, cmd interfaces.Command) error {
	return s.do(ctx, request{kind: kindCommand, session: session, command: cmd})
}

func (s *Service) do(ctx context.Context, req request) error {
	req.done = make(chan struct{})
	select {
	case s.requests <- req:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) onConnect(session interfaces.Session) {
	s.sessions[session] = struct{}{}
	s.metrics.Sessions.Set(float64(len(s.sessions)))

	msg, err := interfaces.EncodeEvent(interfaces.InitEvent{Orders: s.registry.Orders()})
	if err != nil {
		s.logger.Error("encode_failed", "Failed to encode init snapshot", session.ID(), nil, err)
		return
	}
	if err := session.Send(msg); err != nil {
		s.metrics.DroppedMessages.Inc()
		s.logger.Error("send_failed", "Failed to send init snapshot", session.ID(), nil, err)
	}

	s.logger.Info("session_connected", "Terminal connected", session.ID(), map[string]interface{}{
		"sessions": len(s.sessions),
	})
}

func (s *Service) onDisconnect(session interfaces.Session) {
	if _, ok := s.sessions[session]; !ok {
		return
	}
	delete(s.sessions, session)
	s.metrics.Sessions.Set(float64(len(s.sessions)))

	s.logger.Info("session_disconnected", "Terminal disconnected", session.ID(), map[string]interface{}{
		"sessions": len(s.sessions),
	})
}

func (s *Service) onCommand(session interfaces.Session, cmd interfaces.Command) {
	event, err := s.apply(cmd)
	if err != nil {
		outcome := "error"
		if registry.IsSilent(err) {
			outcome = "ignored"
		}
		s.metrics.Commands.WithLabelValues(cmd.CommandType(), outcome).Inc()
		s.logger.Debug("command_ignored", fmt.Sprintf("%s produced no change", cmd.CommandType()), session.ID(), map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}

	s.metrics.Commands.WithLabelValues(cmd.CommandType(), "applied").Inc()
	s.broadcast(event)
}

func (s *Service) apply(cmd interfaces.Command) (interfaces.Event, error) {
	switch c := cmd.(type) {
	case interfaces.NewOrderCommand:
		order, err := s.registry.Create(c.Items)
		if err != nil {
			return nil, err
		}
		return interfaces.OrderCreatedEvent{Order: order}, nil

	case interfaces.UpdateStatusCommand:
		order, err := s.registry.AdvanceStatus(c.OrderID, c.Status)
		if err != nil {
			return nil, err
		}
		return interfaces.OrderUpdatedEvent{Order: order}, nil

	case interfaces.CancelOrderCommand:
		order, err := s.registry.Cancel(c.OrderID)
		if err != nil {
			return nil, err
		}
		return interfaces.OrderCancelledEvent{OrderID: order.ID}, nil

	default:
		return nil, fmt.Errorf("%w: %T", interfaces.ErrUnknownMessageType, cmd)
	}
}

// broadcast serializes once and sends to every session. Must only be called
// from the Run loop.
func (s *Service) broadcast(event interfaces.Event) {
	msg, err := interfaces.EncodeEvent(event)
	if err != nil {
		s.logger.Error("encode_failed", "Failed to encode event", "", nil, err)
		return
	}

	for session := range s.sessions {
		if err := session.Send(msg); err != nil {
			s.metrics.DroppedMessages.Inc()
			s.logger.Debug("send_skipped", "Session not writable, event skipped", session.ID(), map[string]interface{}{
				"type":   event.EventType(),
				"reason": err.Error(),
			})
		}
	}
	s.metrics.Events.WithLabelValues(event.EventType()).Inc()

	if len(s.sinks) == 0 {
		return
	}
	select {
	case s.sinkCh <- event:
	default:
		s.logger.Warn("sink_overflow", "Event sink buffer full, event not mirrored", "", map[string]interface{}{
			"type": event.EventType(),
		})
	}
}

func (s *Service) forwardToSinks(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.sinkCh:
			for _, sink := range s.sinks {
				if err := sink.PublishEvent(ctx, event); err != nil {
					s.logger.Error("sink_publish_failed", "Failed to mirror event", "", map[string]interface{}{
						"type": event.EventType(),
					}, err)
				}
			}
		}
	}
}
