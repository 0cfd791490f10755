package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	cfg "github.com/Skyfz/skypoint-social/configs"
	"github.com/Skyfz/skypoint-social/internal/models"
	"github.com/Skyfz/skypoint-social/internal/transfer"
)

const instagramAPIBase = "https://graph.instagram.com"

type InstagramService struct {
	cfg     cfg.Config
	baseURL string
}

func NewInstagramService(cfg cfg.Config) *InstagramService {
	return &InstagramService{cfg: cfg, baseURL: instagramAPIBase}
}

func (s *InstagramService) Identifier() string {
	return models.PlatformInstagram
}

// Publish creates a media container per attachment (a carousel when there is
// more than one), publishes it and resolves the permalink. Instagram has no
// text-only post type, so a post without media fails here.
func (s *InstagramService) Publish(ctx context.Context, post *models.Post) transfer.PublishResult {
	url, err := s.publish(ctx, post)
	if err != nil {
		slog.Error("instagram publish failed", "post_id", post.ID, "error", err)
		return transfer.PublishResult{Success: false, Error: err.Error()}
	}
	return transfer.PublishResult{Success: true, URL: url}
}

func (s *InstagramService) publish(ctx context.Context, post *models.Post) (string, error) {
	if len(post.Media) == 0 {
		return "", fmt.Errorf("instagram requires at least one media attachment")
	}

	var containerID string
	var err error

	if len(post.Media) == 1 {
		containerID, err = s.createContainer(ctx, map[string]interface{}{
			"image_url":    post.Media[0],
			"caption":      post.Content,
			"access_token": s.cfg.Instagram.AccessToken,
		})
	} else {
		containerID, err = s.createCarousel(ctx, post)
	}
	if err != nil {
		return "", err
	}

	mediaID, err := s.publishContainer(ctx, containerID)
	if err != nil {
		return "", err
	}

	return s.permalink(ctx, mediaID)
}

func (s *InstagramService) createCarousel(ctx context.Context, post *models.Post) (string, error) {
	children := make([]string, 0, len(post.Media))
	for _, mediaURL := range post.Media {
		id, err := s.createContainer(ctx, map[string]interface{}{
			"image_url":        mediaURL,
			"is_carousel_item": true,
			"access_token":     s.cfg.Instagram.AccessToken,
		})
		if err != nil {
			return "", err
		}
		children = append(children, id)
	}

	return s.createContainer(ctx, map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      post.Content,
		"children":     children,
		"access_token": s.cfg.Instagram.AccessToken,
	})
}

func (s *InstagramService) createContainer(ctx context.Context, payload map[string]interface{}) (string, error) {
	url := fmt.Sprintf("%s/v21.0/%s/media", s.baseURL, s.cfg.Instagram.AccountID)
	return s.postForID(ctx, url, payload)
}

func (s *InstagramService) publishContainer(ctx context.Context, containerID string) (string, error) {
	url := fmt.Sprintf("%s/v21.0/%s/media_publish", s.baseURL, s.cfg.Instagram.AccountID)
	return s.postForID(ctx, url, map[string]interface{}{
		"creation_id":  containerID,
		"access_token": s.cfg.Instagram.AccessToken,
	})
}

func (s *InstagramService) postForID(ctx context.Context, url string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %d from Instagram: %s", resp.StatusCode, respBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media ID returned from Instagram")
	}
	return result.ID, nil
}

func (s *InstagramService) permalink(ctx context.Context, mediaID string) (string, error) {
	url := fmt.Sprintf("%s/v21.0/%s?fields=permalink&access_token=%s", s.baseURL, mediaID, s.cfg.Instagram.AccessToken)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching permalink", resp.StatusCode)
	}

	var result struct {
		Permalink string `json:"permalink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Permalink == "" {
		return "", fmt.Errorf("no permalink returned from Instagram")
	}
	return result.Permalink, nil
}
