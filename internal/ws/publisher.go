package ws

import "context"

// Publisher announces that rows behind a live-query topic changed.
type Publisher interface {
	Publish(ctx context.Context, topic string) error
}

type PublisherFunc func(ctx context.Context, topic string) error

func (f PublisherFunc) Publish(ctx context.Context, topic string) error {
	return f(ctx, topic)
}

// Nop drops every publication. Used where no live queries are served.
var Nop Publisher = PublisherFunc(func(context.Context, string) error { return nil })
