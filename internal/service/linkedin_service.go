package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/oauth2"

	cfg "github.com/Skyfz/skypoint-social/configs"
	"github.com/Skyfz/skypoint-social/internal/models"
	"github.com/Skyfz/skypoint-social/internal/transfer"
)

const (
	linkedInAPIBase = "https://api.linkedin.com"

	// LinkedIn caps the media title field well below the post body limit,
	// so the body is truncated to this prefix for title/description use.
	linkedInTitleLimit = 200

	recipeImage = "urn:li:digitalmediaRecipe:feedshare-image"
	recipeVideo = "urn:li:digitalmediaRecipe:feedshare-video"
)

type LinkedInService struct {
	cfg     cfg.Config
	client  *http.Client
	baseURL string
}

func NewLinkedInService(cfg cfg.Config) *LinkedInService {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.LinkedIn.AccessToken})
	return &LinkedInService{
		cfg:     cfg,
		client:  oauth2.NewClient(context.Background(), ts),
		baseURL: linkedInAPIBase,
	}
}

func (s *LinkedInService) Identifier() string {
	return models.PlatformLinkedIn
}

// Publish runs the three-step flow: register an upload slot per media file,
// re-upload the bytes verbatim, then submit a ugcPost referencing the assets.
// Posts without media skip straight to a text-only ugcPost. A failure at any
// step aborts the attempt; an already-registered slot is left unused.
func (s *LinkedInService) Publish(ctx context.Context, post *models.Post) transfer.PublishResult {
	url, err := s.publish(ctx, post)
	if err != nil {
		slog.Error("linkedin publish failed", "post_id", post.ID, "error", err)
		return transfer.PublishResult{Success: false, Error: err.Error()}
	}
	return transfer.PublishResult{Success: true, URL: url}
}

func (s *LinkedInService) publish(ctx context.Context, post *models.Post) (string, error) {
	var media []transfer.LinkedInMedia
	category := "NONE"

	title := truncateTitle(post.Content)

	for _, mediaURL := range post.Media {
		recipe := mediaRecipe(mediaURL)
		if recipe == recipeVideo {
			category = "VIDEO"
		} else if category == "NONE" {
			category = "IMAGE"
		}

		asset, uploadURL, err := s.registerUpload(ctx, recipe)
		if err != nil {
			return "", fmt.Errorf("register upload: %w", err)
		}

		if err := s.uploadMedia(ctx, uploadURL, mediaURL); err != nil {
			return "", fmt.Errorf("upload media: %w", err)
		}

		media = append(media, transfer.LinkedInMedia{
			Status:      "READY",
			Media:       asset,
			Title:       transfer.LinkedInText{Text: title},
			Description: transfer.LinkedInText{Text: title},
		})
	}

	return s.createUGCPost(ctx, post.Content, category, media)
}

func (s *LinkedInService) registerUpload(ctx context.Context, recipe string) (asset, uploadURL string, err error) {
	payload := transfer.LinkedInRegisterUploadRequest{
		RegisterUploadRequest: transfer.LinkedInRegisterUpload{
			Recipes: []string{recipe},
			Owner:   s.cfg.LinkedIn.AuthorURN,
			ServiceRelationships: []transfer.LinkedInServiceRelationship{
				{RelationshipType: "OWNER", Identifier: "urn:li:userGeneratedContent"},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v2/assets?action=registerUpload", bytes.NewBuffer(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("unexpected status %d from LinkedIn: %s", resp.StatusCode, respBody)
	}

	var result transfer.LinkedInRegisterUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("error parsing register response: %w", err)
	}

	asset = result.Value.Asset
	uploadURL = result.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL
	if asset == "" || uploadURL == "" {
		return "", "", fmt.Errorf("register response missing asset or upload URL")
	}
	return asset, uploadURL, nil
}

func (s *LinkedInService) uploadMedia(ctx context.Context, uploadURL, mediaURL string) error {
	srcReq, err := http.NewRequestWithContext(ctx, "GET", mediaURL, nil)
	if err != nil {
		return err
	}
	srcResp, err := http.DefaultClient.Do(srcReq)
	if err != nil {
		return fmt.Errorf("fetching source media: %w", err)
	}
	defer srcResp.Body.Close()

	if srcResp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching source media", srcResp.StatusCode)
	}

	fileBytes, err := io.ReadAll(srcResp.Body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", uploadURL, bytes.NewReader(fileBytes))
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d uploading media: %s", resp.StatusCode, respBody)
	}
	return nil
}

func (s *LinkedInService) createUGCPost(ctx context.Context, content, category string, media []transfer.LinkedInMedia) (string, error) {
	payload := transfer.LinkedInUGCPost{
		Author:         s.cfg.LinkedIn.AuthorURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: transfer.LinkedInSpecificContent{
			ShareContent: transfer.LinkedInShareContent{
				ShareCommentary:    transfer.LinkedInText{Text: content},
				ShareMediaCategory: category,
				Media:              media,
			},
		},
		Visibility: transfer.LinkedInVisibility{MemberNetworkVisibility: "PUBLIC"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v2/ugcPosts", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %d from LinkedIn: %s", resp.StatusCode, respBody)
	}

	var result transfer.LinkedInUGCPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing ugcPost response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no post id returned from LinkedIn")
	}

	return fmt.Sprintf("https://www.linkedin.com/feed/update/%s", result.ID), nil
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".webm": {},
}

// truncateTitle caps the body for title/description use without splitting a
// multi-byte rune at the cut.
func truncateTitle(s string) string {
	if len(s) <= linkedInTitleLimit {
		return s
	}
	cut := linkedInTitleLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// mediaRecipe decides image vs video by file-extension pattern matching on
// the media URL.
func mediaRecipe(mediaURL string) string {
	ext := strings.ToLower(path.Ext(mediaURL))
	if _, ok := videoExtensions[ext]; ok {
		return recipeVideo
	}
	return recipeImage
}
