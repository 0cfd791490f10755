package service

import (
	"context"
	"fmt"

	"github.com/Skyfz/skypoint-social/internal/models"
	"github.com/Skyfz/skypoint-social/internal/transfer"
)

// FacebookService is the stand-in publisher for the generic feed. It sits
// behind the same Publisher interface as the real adapters, so swapping in a
// Graph API implementation touches nothing in the dispatcher.
type FacebookService struct{}

func NewFacebookService() *FacebookService {
	return &FacebookService{}
}

func (s *FacebookService) Identifier() string {
	return models.PlatformFacebook
}

func (s *FacebookService) Publish(ctx context.Context, post *models.Post) transfer.PublishResult {
	return transfer.PublishResult{
		Success: true,
		URL:     fmt.Sprintf("https://www.facebook.com/share/%s", post.ID),
	}
}
