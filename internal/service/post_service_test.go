package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Skyfz/skypoint-social/internal/models"
	"github.com/Skyfz/skypoint-social/internal/transfer"
)

type mockUploader struct {
	upload func(ctx context.Context, file []byte) (string, error)
}

func (m *mockUploader) Upload(ctx context.Context, file []byte) (string, error) {
	if m.upload != nil {
		return m.upload(ctx, file)
	}
	return "https://media.example.com/x", nil
}

func newTestPostService(repo *mockRepo) PostService {
	return NewPostService(testConfig(), repo, &mockUploader{}, nil)
}

func TestPostService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("pending post is stored", func(t *testing.T) {
		var stored *models.Post
		repo := &mockRepo{create: func(_ context.Context, p *models.Post) error {
			stored = p
			return nil
		}}
		svc := newTestPostService(repo)

		post, err := svc.Create(ctx, "hunter2", &transfer.PostCreation{
			Content:       "Launch day!",
			ScheduledDate: "2026-09-01T10:00",
			Status:        "pending",
			Platforms:     []string{"facebook", "linkedin"},
		}, nil)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if post.ID == "" || post.Status != models.StatusPending {
			t.Errorf("post = %+v", post)
		}
		if stored == nil || stored.Content != "Launch day!" || len(stored.Platforms) != 2 {
			t.Errorf("stored = %+v", stored)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		_, err := svc.Create(ctx, "nope", &transfer.PostCreation{Content: "x", Status: "draft"}, nil)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("server secret unset", func(t *testing.T) {
		c := testConfig()
		c.SecretKey = ""
		svc := NewPostService(c, &mockRepo{}, &mockUploader{}, nil)
		_, err := svc.Create(ctx, "anything", &transfer.PostCreation{Content: "x", Status: "draft"}, nil)
		if !errors.Is(err, ErrSecretUnset) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		_, err := svc.Create(ctx, "hunter2", &transfer.PostCreation{Status: "draft"}, nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("pending without platforms rejected", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		_, err := svc.Create(ctx, "hunter2", &transfer.PostCreation{
			Content:       "x",
			ScheduledDate: "2026-09-01T10:00",
			Status:        "pending",
		}, nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("draft without platforms allowed", func(t *testing.T) {
		created := false
		repo := &mockRepo{create: func(context.Context, *models.Post) error {
			created = true
			return nil
		}}
		svc := newTestPostService(repo)

		post, err := svc.Create(ctx, "hunter2", &transfer.PostCreation{Content: "x", Status: "draft"}, nil)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !created || post.Status != models.StatusDraft {
			t.Errorf("post = %+v", post)
		}
	})

	t.Run("terminal creation status rejected", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		_, err := svc.Create(ctx, "hunter2", &transfer.PostCreation{Content: "x", Status: "posted"}, nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})
}

func TestPostService_Update(t *testing.T) {
	ctx := context.Background()

	pendingPost := func() *models.Post {
		return &models.Post{
			ID:            "p1",
			Content:       "old",
			Media:         []string{"https://media.example.com/a", "https://media.example.com/b"},
			Status:        models.StatusPending,
			Platforms:     []string{"facebook"},
			ScheduledDate: time.Now().Add(time.Hour),
		}
	}

	t.Run("wrong secret on pending leaves record unchanged", func(t *testing.T) {
		updated := false
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return pendingPost(), nil },
			update:  func(context.Context, *models.Post) error { updated = true; return nil },
		}
		svc := newTestPostService(repo)

		_, err := svc.Update(ctx, "p1", "wrong", &transfer.PostCreation{Content: "new"}, nil, nil)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("got err %v", err)
		}
		if updated {
			t.Error("repo.Update was called")
		}
	})

	t.Run("terminal post skips the secret gate", func(t *testing.T) {
		post := pendingPost()
		post.Status = models.StatusPosted
		var saved *models.Post
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return post, nil },
			update:  func(_ context.Context, p *models.Post) error { saved = p; return nil },
		}
		svc := newTestPostService(repo)

		got, err := svc.Update(ctx, "p1", "", &transfer.PostCreation{Notes: "archived"}, nil, nil)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Notes != "archived" || saved == nil {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		_, err := svc.Update(ctx, "missing", "hunter2", nil, nil, nil)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("draft cannot become pending without platforms", func(t *testing.T) {
		post := pendingPost()
		post.Status = models.StatusDraft
		post.Platforms = nil
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return post, nil },
		}
		svc := newTestPostService(repo)

		_, err := svc.Update(ctx, "p1", "hunter2", &transfer.PostCreation{Status: "pending"}, nil, nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("failed post can be resubmitted", func(t *testing.T) {
		post := pendingPost()
		post.Status = models.StatusFailed
		var saved *models.Post
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return post, nil },
			update:  func(_ context.Context, p *models.Post) error { saved = p; return nil },
		}
		svc := newTestPostService(repo)

		got, err := svc.Update(ctx, "p1", "", &transfer.PostCreation{Status: "pending"}, nil, nil)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Status != models.StatusPending || saved.Status != models.StatusPending {
			t.Errorf("status = %q", got.Status)
		}
	})

	t.Run("posted post cannot revert", func(t *testing.T) {
		post := pendingPost()
		post.Status = models.StatusPosted
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return post, nil },
		}
		svc := newTestPostService(repo)

		_, err := svc.Update(ctx, "p1", "", &transfer.PostCreation{Status: "pending"}, nil, nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("deleted media is removed", func(t *testing.T) {
		var saved *models.Post
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return pendingPost(), nil },
			update:  func(_ context.Context, p *models.Post) error { saved = p; return nil },
		}
		svc := newTestPostService(repo)

		got, err := svc.Update(ctx, "p1", "hunter2", nil, nil,
			[]transfer.DeletedMedia{{URL: "https://media.example.com/a"}})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if len(got.Media) != 1 || got.Media[0] != "https://media.example.com/b" {
			t.Errorf("media = %v", got.Media)
		}
		if saved == nil {
			t.Error("repo.Update was not called")
		}
	})

	t.Run("scheduled date frozen after dispatch", func(t *testing.T) {
		post := pendingPost()
		post.Status = models.StatusPartialSuccess
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return post, nil },
		}
		svc := newTestPostService(repo)

		_, err := svc.Update(ctx, "p1", "", &transfer.PostCreation{ScheduledDate: "2026-09-01T10:00"}, nil, nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})
}

func TestPostService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong secret on pending", func(t *testing.T) {
		removed := false
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) {
				return &models.Post{ID: "p1", Status: models.StatusPending}, nil
			},
			remove: func(context.Context, string) (bool, error) { removed = true; return true, nil },
		}
		svc := newTestPostService(repo)

		err := svc.Delete(ctx, "p1", "wrong")
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("got err %v", err)
		}
		if removed {
			t.Error("repo.Remove was called")
		}
	})

	t.Run("terminal post deletes without secret", func(t *testing.T) {
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) {
				return &models.Post{ID: "p1", Status: models.StatusFailed}, nil
			},
		}
		svc := newTestPostService(repo)

		if err := svc.Delete(ctx, "p1", ""); err != nil {
			t.Errorf("Delete: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		err := svc.Delete(ctx, "missing", "hunter2")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got err %v", err)
		}
	})
}

func TestPostService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("counts include in_flight under pending", func(t *testing.T) {
		repo := &mockRepo{
			countByStatus: func(context.Context) (map[models.Status]int, error) {
				return map[models.Status]int{
					models.StatusDraft:    2,
					models.StatusPending:  3,
					models.StatusInFlight: 1,
					models.StatusPosted:   4,
				}, nil
			},
		}
		svc := newTestPostService(repo)

		_, counts, err := svc.List(ctx, 20, 0, "")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if counts.Total != 10 || counts.Pending != 4 || counts.Draft != 2 || counts.Posted != 4 {
			t.Errorf("counts = %+v", counts)
		}
	})

	t.Run("status filter is passed through", func(t *testing.T) {
		var gotStatus models.Status
		repo := &mockRepo{
			list: func(_ context.Context, limit, offset int, status models.Status) ([]*models.Post, error) {
				gotStatus = status
				return []*models.Post{{ID: "p1", Status: status}}, nil
			},
		}
		svc := newTestPostService(repo)

		posts, _, err := svc.List(ctx, 20, 0, "pending")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if gotStatus != models.StatusPending || len(posts) != 1 {
			t.Errorf("status = %q, posts = %v", gotStatus, posts)
		}
	})

	t.Run("unknown status filter rejected", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		_, _, err := svc.List(ctx, 20, 0, "published")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})
}

func TestPostService_CreateFromWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to pending without a secret", func(t *testing.T) {
		var stored *models.Post
		repo := &mockRepo{create: func(_ context.Context, p *models.Post) error {
			stored = p
			return nil
		}}
		svc := newTestPostService(repo)

		post, err := svc.CreateFromWebhook(ctx, &transfer.WebhookPost{
			Content:       "From the content source",
			MediaURLs:     []string{"https://cdn.example.com/shot.png"},
			ScheduledDate: "2026-09-01T10:00:00Z",
			Platforms:     []string{"linkedin"},
		})
		if err != nil {
			t.Fatalf("CreateFromWebhook: %v", err)
		}
		if post.Status != models.StatusPending || stored == nil {
			t.Errorf("post = %+v", post)
		}
		if len(post.Media) != 1 || post.Media[0] != "https://cdn.example.com/shot.png" {
			t.Errorf("media = %v", post.Media)
		}
	})

	t.Run("missing content rejected", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		_, err := svc.CreateFromWebhook(ctx, &transfer.WebhookPost{Platforms: []string{"linkedin"}})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})
}

func TestPostService_Complete(t *testing.T) {
	ctx := context.Background()

	inFlight := func() *models.Post {
		return &models.Post{ID: "p1", Status: models.StatusInFlight, Platforms: []string{"linkedin"}}
	}

	t.Run("reported links finalize to posted", func(t *testing.T) {
		var persistedStatus models.Status
		var persistedLinks map[string]string
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return inFlight(), nil },
			updateDispatchResult: func(_ context.Context, _ string, status models.Status, links map[string]string, _ string) error {
				persistedStatus = status
				persistedLinks = links
				return nil
			},
		}
		ev := &captureEvents{}
		svc := NewPostService(testConfig(), repo, &mockUploader{}, ev)

		post, err := svc.Complete(ctx, &transfer.CompletionPayload{
			PostID:      "p1",
			LinkedInURL: "https://li/1",
		})
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if post.Status != models.StatusPosted || persistedStatus != models.StatusPosted {
			t.Errorf("status = %q", post.Status)
		}
		if persistedLinks["linkedin"] != "https://li/1" {
			t.Errorf("links = %v", persistedLinks)
		}
		if len(ev.published) != 1 || ev.published[0].Payload.Status != string(models.StatusPosted) ||
			ev.published[0].Payload.Links["linkedin"] != "https://li/1" {
			t.Errorf("events = %+v", ev.published)
		}
	})

	t.Run("no links finalize to failed", func(t *testing.T) {
		var persistedStatus models.Status
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) { return inFlight(), nil },
			updateDispatchResult: func(_ context.Context, _ string, status models.Status, _ map[string]string, _ string) error {
				persistedStatus = status
				return nil
			},
		}
		svc := newTestPostService(repo)

		post, err := svc.Complete(ctx, &transfer.CompletionPayload{PostID: "p1"})
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if post.Status != models.StatusFailed || persistedStatus != models.StatusFailed {
			t.Errorf("status = %q", post.Status)
		}
	})

	t.Run("already posted record rejected", func(t *testing.T) {
		repo := &mockRepo{
			getByID: func(context.Context, string) (*models.Post, error) {
				return &models.Post{ID: "p1", Status: models.StatusPosted}, nil
			},
		}
		svc := newTestPostService(repo)

		_, err := svc.Complete(ctx, &transfer.CompletionPayload{PostID: "p1"})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("got err %v", err)
		}
	})

	t.Run("unknown post", func(t *testing.T) {
		svc := newTestPostService(&mockRepo{})
		_, err := svc.Complete(ctx, &transfer.CompletionPayload{PostID: "missing"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got err %v", err)
		}
	})
}
