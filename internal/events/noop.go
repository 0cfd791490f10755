package events

import "context"

type NoopPublisher struct{}

func (NoopPublisher) PublishPostDispatched(context.Context, PostDispatched) error {
	return nil
}

var _ Publisher = (*NoopPublisher)(nil)
