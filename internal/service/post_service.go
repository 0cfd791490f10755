package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/google/uuid"

	cfg "github.com/Skyfz/skypoint-social/configs"
	"github.com/Skyfz/skypoint-social/internal/events"
	"github.com/Skyfz/skypoint-social/internal/models"
	"github.com/Skyfz/skypoint-social/internal/repository"
	"github.com/Skyfz/skypoint-social/internal/transfer"
	"github.com/Skyfz/skypoint-social/pkg/utils"
)

type PostService interface {
	Create(ctx context.Context, secretKey string, pc *transfer.PostCreation, files []*multipart.FileHeader) (*models.Post, error)
	List(ctx context.Context, limit, offset int, status string) ([]*models.Post, *transfer.StatusCounts, error)
	Update(ctx context.Context, id, secretKey string, pc *transfer.PostCreation, files []*multipart.FileHeader, deleted []transfer.DeletedMedia) (*models.Post, error)
	Delete(ctx context.Context, id, secretKey string) error
	CreateFromWebhook(ctx context.Context, wp *transfer.WebhookPost) (*models.Post, error)
	Complete(ctx context.Context, cp *transfer.CompletionPayload) (*models.Post, error)
}

type postService struct {
	cfg   cfg.Config
	pr    repository.PostRepository
	media MediaUploader
	ev    events.Publisher
}

func NewPostService(cfg cfg.Config, pr repository.PostRepository, media MediaUploader, ev events.Publisher) PostService {
	return &postService{
		cfg:   cfg,
		pr:    pr,
		media: media,
		ev:    ev,
	}
}

var scheduledDateLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

func parseScheduledDate(value string) (time.Time, error) {
	var err error
	for _, layout := range scheduledDateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid scheduled date format: %v", ErrValidation, err)
}

func (s *postService) Create(ctx context.Context, secretKey string, pc *transfer.PostCreation, files []*multipart.FileHeader) (*models.Post, error) {
	if err := s.requireSecret(secretKey); err != nil {
		return nil, err
	}
	return s.create(ctx, pc, files, nil)
}

// create is the ungated path shared with the inbound content-source webhook,
// which references already-hosted media by URL instead of uploading parts.
func (s *postService) create(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader, mediaURLs []string) (*models.Post, error) {
	if pc == nil {
		return nil, fmt.Errorf("%w: post data is missing", ErrValidation)
	}
	if pc.Content == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
	}

	status := models.StatusPending
	if pc.Status != "" {
		status = models.Status(pc.Status)
	}
	if status != models.StatusDraft && status != models.StatusPending {
		return nil, fmt.Errorf("%w: posts are created as draft or pending, got %q", ErrValidation, status)
	}

	// Drafts are exempt from the platform requirement until they move to
	// pending.
	if status != models.StatusDraft && len(pc.Platforms) == 0 {
		return nil, fmt.Errorf("%w: at least one platform is required", ErrValidation)
	}

	var scheduled time.Time
	if pc.ScheduledDate != "" {
		var err error
		if scheduled, err = parseScheduledDate(pc.ScheduledDate); err != nil {
			return nil, err
		}
	} else if status == models.StatusPending {
		return nil, fmt.Errorf("%w: scheduled date is required for pending posts", ErrValidation)
	}

	uploaded, err := s.uploadFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	media := append(mediaURLs, uploaded...)

	now := time.Now().UTC()
	post := &models.Post{
		ID:            uuid.NewString(),
		Content:       pc.Content,
		Media:         media,
		ScheduledDate: scheduled,
		Team:          pc.Team,
		Notes:         pc.Notes,
		Status:        status,
		Platforms:     pc.Platforms,
		PostLinks:     map[string]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, limit, offset int, status string) ([]*models.Post, *transfer.StatusCounts, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	filter := models.Status(status)
	if status != "" && !models.ValidStatus(filter) {
		return nil, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	posts, err := s.pr.List(ctx, limit, offset, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing posts: %w", err)
	}

	byStatus, err := s.pr.CountByStatus(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error counting posts: %w", err)
	}

	counts := &transfer.StatusCounts{
		Draft:          byStatus[models.StatusDraft],
		Pending:        byStatus[models.StatusPending] + byStatus[models.StatusInFlight],
		Posted:         byStatus[models.StatusPosted],
		Failed:         byStatus[models.StatusFailed],
		PartialSuccess: byStatus[models.StatusPartialSuccess],
	}
	for _, n := range byStatus {
		counts.Total += n
	}

	return posts, counts, nil
}

func (s *postService) Update(ctx context.Context, id, secretKey string, pc *transfer.PostCreation, files []*multipart.FileHeader, deleted []transfer.DeletedMedia) (*models.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: post id is required", ErrValidation)
	}

	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}

	// Dispatch-terminal posts are historical; the secret gate only protects
	// records that can still be published.
	if !post.Status.Terminal() {
		if err := s.requireSecret(secretKey); err != nil {
			return nil, err
		}
	}

	if pc != nil {
		if pc.Content != "" {
			post.Content = pc.Content
		}
		if pc.Team != "" {
			post.Team = pc.Team
		}
		if pc.Notes != "" {
			post.Notes = pc.Notes
		}
		if pc.Platforms != nil {
			post.Platforms = pc.Platforms
		}

		if pc.ScheduledDate != "" {
			if post.Status != models.StatusDraft && post.Status != models.StatusPending {
				return nil, fmt.Errorf("%w: scheduled date can only change while draft or pending", ErrValidation)
			}
			scheduled, err := parseScheduledDate(pc.ScheduledDate)
			if err != nil {
				return nil, err
			}
			post.ScheduledDate = scheduled
		}

		if pc.Status != "" && models.Status(pc.Status) != post.Status {
			next := models.Status(pc.Status)
			if !models.ValidStatus(next) {
				return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, pc.Status)
			}
			if !models.CanTransition(post.Status, next) {
				return nil, fmt.Errorf("%w: cannot move %s post to %s", ErrValidation, post.Status, next)
			}
			if next == models.StatusPending && len(post.Platforms) == 0 {
				return nil, fmt.Errorf("%w: at least one platform is required", ErrValidation)
			}
			post.Status = next
		}
	}

	// Media is left alone on terminal posts.
	if !post.Status.Terminal() {
		post.Media = removeDeletedMedia(post.Media, deleted)

		uploaded, err := s.uploadFiles(ctx, files)
		if err != nil {
			return nil, err
		}
		post.Media = append(post.Media, uploaded...)
	}

	post.UpdatedAt = time.Now().UTC()
	if err := s.pr.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, id, secretKey string) error {
	if id == "" {
		return fmt.Errorf("%w: post id is required", ErrValidation)
	}

	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNotFound
	}

	if !post.Status.Terminal() {
		if err := s.requireSecret(secretKey); err != nil {
			return err
		}
	}

	// Uploaded media stays behind; objects in the media store are never
	// garbage-collected.
	removed, err := s.pr.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

func (s *postService) CreateFromWebhook(ctx context.Context, wp *transfer.WebhookPost) (*models.Post, error) {
	if wp == nil {
		return nil, fmt.Errorf("%w: payload is missing", ErrValidation)
	}

	status := wp.Status
	if status == "" {
		status = string(models.StatusPending)
	}

	return s.create(ctx, &transfer.PostCreation{
		Content:       wp.Content,
		ScheduledDate: wp.ScheduledDate,
		Team:          wp.Team,
		Notes:         wp.Notes,
		Status:        status,
		Platforms:     wp.Platforms,
	}, nil, wp.MediaURLs)
}

func (s *postService) Complete(ctx context.Context, cp *transfer.CompletionPayload) (*models.Post, error) {
	if cp == nil || cp.PostID == "" {
		return nil, fmt.Errorf("%w: post_id is required", ErrValidation)
	}

	post, err := s.pr.GetByID(ctx, cp.PostID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}

	links := make(map[string]string)
	if cp.LinkedInURL != "" {
		links[models.PlatformLinkedIn] = cp.LinkedInURL
	}
	if cp.InstagramURL != "" {
		links[models.PlatformInstagram] = cp.InstagramURL
	}
	if cp.FacebookURL != "" {
		links[models.PlatformFacebook] = cp.FacebookURL
	}

	status := models.StatusFailed
	failReason := "automation reported no published links"
	if len(links) > 0 {
		status = models.StatusPosted
		failReason = ""
	}

	if !models.CanTransition(post.Status, status) {
		return nil, fmt.Errorf("%w: cannot move %s post to %s", ErrValidation, post.Status, status)
	}

	if err := s.pr.UpdateDispatchResult(ctx, post.ID, status, links, failReason); err != nil {
		return nil, fmt.Errorf("error finalizing post: %w", err)
	}

	// The forwarded record only produced an in_flight event at dispatch time;
	// this is where webhook-mode deliveries get their final event.
	if s.ev != nil {
		e := events.NewPostDispatched(post.ID, string(status), links, failReason)
		if err := s.ev.PublishPostDispatched(ctx, e); err != nil {
			slog.Error("failed to publish dispatch event", "post_id", post.ID, "error", err)
		}
	}

	post.Status = status
	post.PostLinks = links
	post.FailReason = failReason
	post.UpdatedAt = time.Now().UTC()
	return post, nil
}

func (s *postService) requireSecret(secretKey string) error {
	if s.cfg.SecretKey == "" {
		slog.Error("SECRET_KEY is not configured")
		return ErrSecretUnset
	}
	if !utils.SecureEquals(secretKey, s.cfg.SecretKey) {
		return ErrUnauthorized
	}
	return nil
}

func (s *postService) uploadFiles(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	var urls []string
	for _, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening file: %w", err)
		}

		fileBytes, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		url, err := s.media.Upload(ctx, fileBytes)
		if err != nil {
			return nil, fmt.Errorf("error uploading file: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func removeDeletedMedia(media []string, deleted []transfer.DeletedMedia) []string {
	if len(deleted) == 0 {
		return media
	}
	drop := make(map[string]struct{}, len(deleted))
	for _, d := range deleted {
		drop[d.URL] = struct{}{}
	}

	kept := media[:0]
	for _, url := range media {
		if _, ok := drop[url]; !ok {
			kept = append(kept, url)
		}
	}
	return kept
}
