// Package notify carries live-query topics between server instances that
// share a PostgreSQL database.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/ws"
	"github.com/lib/pq"
)

const (
	minReconnect = 10 * time.Second
	maxReconnect = time.Minute
	pingInterval = 90 * time.Second
)

// Publisher announces a changed topic on a NOTIFY channel. Every instance,
// including the sender, receives it through its Listener.
type Publisher struct {
	db      *sqlx.DB
	channel string
}

func NewPublisher(db *sqlx.DB, channel string) *Publisher {
	return &Publisher{db: db, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, topic string) error {
	const op = "notify.Publisher.Publish"

	if _, err := p.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, p.channel, topic); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type Listener struct {
	dsn     string
	channel string
	target  ws.Publisher
	log     *slog.Logger
}

func NewListener(dsn, channel string, target ws.Publisher, log *slog.Logger) *Listener {
	return &Listener{dsn: dsn, channel: channel, target: target, log: log}
}

// Run forwards notifications to the target until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	const op = "notify.Listener.Run"

	log := l.log.With(slog.String("op", op), slog.String("channel", l.channel))

	listener := pq.NewListener(l.dsn, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("listener event", slog.Int("event", int(ev)), sl.Err(err))
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("%s: listen: %w", op, err)
	}

	log.Info("listening for changes")

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n := <-listener.Notify:
			if n == nil {
				// Reconnected; anything sent while disconnected is lost.
				log.Warn("listener reconnected")
				continue
			}
			if err := l.target.Publish(ctx, n.Extra); err != nil {
				log.Warn("failed to forward change", slog.String("topic", n.Extra), sl.Err(err))
			}

		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					log.Warn("listener ping failed", sl.Err(err))
				}
			}()
		}
	}
}
