package events

import "context"

type Publisher interface {
	PublishPostDispatched(ctx context.Context, e PostDispatched) error
}
