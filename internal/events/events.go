package events

import "time"

const TypePostDispatched = "post.dispatched"

type PostDispatchedPayload struct {
	PostID string            `json:"post_id"`
	Status string            `json:"status"`
	Links  map[string]string `json:"links,omitempty"`
	Error  string            `json:"error,omitempty"`
}

type PostDispatched struct {
	Type      string                `json:"type"`
	Timestamp time.Time             `json:"timestamp"`
	Payload   PostDispatchedPayload `json:"payload"`
}

func NewPostDispatched(postID, status string, links map[string]string, dispatchErr string) PostDispatched {
	return PostDispatched{
		Type:      TypePostDispatched,
		Timestamp: time.Now().UTC(),
		Payload: PostDispatchedPayload{
			PostID: postID,
			Status: status,
			Links:  links,
			Error:  dispatchErr,
		},
	}
}
