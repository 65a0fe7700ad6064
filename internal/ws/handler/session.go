package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kgellert/hodatay-groups/internal/groups"
	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/messages"
	"github.com/kgellert/hodatay-groups/internal/transport/httpapi"
	"github.com/kgellert/hodatay-groups/internal/ws"
	"github.com/kgellert/hodatay-groups/internal/ws/hub"
)

var errUnknownQuery = fmt.Errorf("unknown query: %w", httpapi.ErrInvalidRequest)

type subscription struct {
	id    string
	topic string
	query string
	args  ws.QueryArgs
}

// session tracks one socket's subscriptions. Queries only run on the pump
// goroutine so results for a subscription are delivered in order.
type session struct {
	conn    *hub.Connection
	hub     *hub.Hub
	queries Queries
	log     *slog.Logger

	mu    sync.Mutex
	subs  map[string]subscription
	dirty map[string]struct{}

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newSession(conn *hub.Connection, h *hub.Hub, q Queries, log *slog.Logger) *session {
	return &session{
		conn:    conn,
		hub:     h,
		queries: q,
		log:     log,
		subs:    make(map[string]subscription),
		dirty:   make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *session) stop() {
	s.once.Do(func() { close(s.done) })
}

func topicFor(query string, args ws.QueryArgs) (string, error) {
	switch query {
	case ws.QueryGroupsList, ws.QueryGroupsGet:
		return groups.Topic, nil
	case ws.QueryMessagesList:
		if args.GroupID == "" {
			return "", fmt.Errorf("args.group_id is required: %w", httpapi.ErrInvalidRequest)
		}
		return messages.Topic(args.GroupID), nil
	}
	return "", errUnknownQuery
}

func (s *session) subscribe(frame ws.ClientFrame) {
	if frame.ID == "" {
		s.sendError("", "invalid_request", "subscription id is required")
		return
	}

	topic, err := topicFor(frame.Query, frame.Args)
	if err != nil {
		s.sendQueryError(frame.ID, err)
		return
	}

	sub := subscription{id: frame.ID, topic: topic, query: frame.Query, args: frame.Args}

	s.mu.Lock()
	prev, replaced := s.subs[sub.id]
	s.subs[sub.id] = sub
	stale := replaced && prev.topic != topic && !s.topicInUseLocked(prev.topic)
	s.mu.Unlock()

	if stale {
		s.hub.Unsubscribe(s.conn, prev.topic)
	}

	// The first run must start after the hub holds the topic, otherwise a
	// write published in between is never rerun.
	if err := s.hub.Subscribe(s.conn, topic); err != nil {
		s.log.Warn("failed to subscribe", slog.String("topic", topic), sl.Err(err))
	}

	s.mu.Lock()
	if cur, ok := s.subs[sub.id]; ok && cur == sub {
		s.dirty[sub.id] = struct{}{}
	}
	s.mu.Unlock()

	s.signal()
}

func (s *session) unsubscribe(id string) {
	s.mu.Lock()
	sub, ok := s.subs[id]
	if ok {
		delete(s.subs, id)
		delete(s.dirty, id)
	}
	release := ok && !s.topicInUseLocked(sub.topic)
	s.mu.Unlock()

	if release {
		s.hub.Unsubscribe(s.conn, sub.topic)
	}
}

func (s *session) topicInUseLocked(topic string) bool {
	for _, sub := range s.subs {
		if sub.topic == topic {
			return true
		}
	}
	return false
}

func (s *session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) queryPump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.conn.Changed():
			s.markTopics(s.conn.TakeChanged())
		case <-s.wake:
		}

		for _, sub := range s.takeDirty() {
			s.deliver(ctx, sub)
		}
	}
}

func (s *session) markTopics(topics []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, topic := range topics {
		for id, sub := range s.subs {
			if sub.topic == topic {
				s.dirty[id] = struct{}{}
			}
		}
	}
}

func (s *session) takeDirty() []subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]subscription, 0, len(s.dirty))
	for id := range s.dirty {
		if sub, ok := s.subs[id]; ok {
			subs = append(subs, sub)
		}
	}
	clear(s.dirty)

	return subs
}

func (s *session) deliver(ctx context.Context, sub subscription) {
	data, err := s.run(ctx, sub)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error("live query failed",
			slog.String("query", sub.query),
			slog.String("subscription", sub.id),
			sl.Err(err),
		)
		s.sendQueryError(sub.id, err)
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		s.log.Error("failed to encode query result", sl.Err(err))
		return
	}

	s.send(ws.ServerFrame{Type: ws.FrameResult, ID: sub.id, Data: raw})
}

func (s *session) run(ctx context.Context, sub subscription) (any, error) {
	switch sub.query {
	case ws.QueryGroupsList:
		return s.queries.Groups.ListGroups(ctx)
	case ws.QueryGroupsGet:
		return s.queries.Groups.GetGroup(ctx, sub.args.ID)
	case ws.QueryMessagesList:
		return s.queries.Messages.ListMessages(ctx, sub.args.GroupID)
	}
	return nil, errUnknownQuery
}

func (s *session) send(frame ws.ServerFrame) {
	b, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("failed to encode frame", sl.Err(err))
		return
	}
	if !s.conn.Send(b) {
		s.log.Warn("dropping frame for slow client", slog.String("type", frame.Type))
	}
}

func (s *session) sendQueryError(id string, err error) {
	_, code, msg := httpapi.MapError(err)
	s.sendError(id, code, msg)
}

func (s *session) sendError(id, code, msg string) {
	s.send(ws.ServerFrame{
		Type:  ws.FrameError,
		ID:    id,
		Error: &response.ErrorBody{Code: code, Message: msg},
	})
}
