package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cfg "github.com/Skyfz/skypoint-social/configs"
	"github.com/Skyfz/skypoint-social/internal/events"
	"github.com/Skyfz/skypoint-social/internal/models"
	"github.com/Skyfz/skypoint-social/internal/repository"
	"github.com/Skyfz/skypoint-social/internal/transfer"
)

const (
	DispatchModeDirect  = "direct"
	DispatchModeWebhook = "webhook"

	defaultLookahead = 5 * time.Minute
)

// Publisher is the per-platform publishing capability. Adding a platform
// means registering another implementation; the dispatcher does not change.
type Publisher interface {
	Identifier() string
	Publish(ctx context.Context, post *models.Post) transfer.PublishResult
}

type Dispatcher struct {
	cfg        cfg.Config
	pr         repository.PostRepository
	ev         events.Publisher
	publishers map[string]Publisher
	lookahead  time.Duration
	client     *http.Client
}

func NewDispatcher(c cfg.Config, pr repository.PostRepository, ev events.Publisher, publishers ...Publisher) *Dispatcher {
	lookahead, err := time.ParseDuration(c.DispatchLookahead)
	if err != nil || lookahead < 0 {
		lookahead = defaultLookahead
	}

	d := &Dispatcher{
		cfg:        c,
		pr:         pr,
		ev:         ev,
		publishers: make(map[string]Publisher),
		lookahead:  lookahead,
		client:     &http.Client{Timeout: 2 * time.Minute},
	}
	for _, p := range publishers {
		d.Register(p)
	}
	return d
}

func (d *Dispatcher) Register(p Publisher) {
	d.publishers[p.Identifier()] = p
}

// Dispatch invokes the matching publisher for each platform on the post, in
// list order, and merges the results. Success is true only when every
// platform succeeded; per-platform error strings are joined into one message.
func (d *Dispatcher) Dispatch(ctx context.Context, post *models.Post) transfer.DispatchResult {
	links := make(map[string]string)
	var errParts []string
	succeeded := 0

	for _, platform := range post.Platforms {
		publisher, ok := d.publishers[platform]
		if !ok {
			errParts = append(errParts, fmt.Sprintf("%s: unsupported platform", platform))
			continue
		}

		res := publisher.Publish(ctx, post)
		if res.Success {
			succeeded++
			if res.URL != "" {
				links[platform] = res.URL
			}
			continue
		}
		errParts = append(errParts, fmt.Sprintf("%s: %s", platform, res.Error))
	}

	return transfer.DispatchResult{
		Success: succeeded == len(post.Platforms),
		Links:   links,
		Error:   strings.Join(errParts, "; "),
	}
}

// RunDue scans for pending posts whose scheduled time falls inside the
// lookahead window and attempts each one. Posts another runner already
// claimed are skipped silently.
func (d *Dispatcher) RunDue(ctx context.Context) ([]transfer.DispatchOutcome, error) {
	due, err := d.pr.ListDue(ctx, time.Now().Add(d.lookahead))
	if err != nil {
		return nil, err
	}

	outcomes := make([]transfer.DispatchOutcome, 0, len(due))
	for _, post := range due {
		claimed, err := d.pr.Claim(ctx, post.ID)
		if err != nil {
			outcomes = append(outcomes, transfer.DispatchOutcome{
				PostID:  post.ID,
				Status:  string(post.Status),
				Success: false,
				Error:   err.Error(),
			})
			continue
		}
		if !claimed {
			continue
		}
		outcomes = append(outcomes, d.dispatchClaimed(ctx, post))
	}
	return outcomes, nil
}

// DispatchByID is the queue-worker entry point: claim one post and attempt
// it. A post that is no longer pending yields a nil outcome.
func (d *Dispatcher) DispatchByID(ctx context.Context, id string) (*transfer.DispatchOutcome, error) {
	post, err := d.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}

	claimed, err := d.pr.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, nil
	}

	outcome := d.dispatchClaimed(ctx, post)
	return &outcome, nil
}

// dispatchClaimed runs one claimed post through the configured delivery mode
// and always writes a result back; a panic inside a publisher is recorded as
// a failed dispatch instead of propagating.
func (d *Dispatcher) dispatchClaimed(ctx context.Context, post *models.Post) (outcome transfer.DispatchOutcome) {
	defer func() {
		if p := recover(); p != nil {
			reason := fmt.Sprintf("dispatch panic: %v", p)
			slog.Error("dispatch panicked", "post_id", post.ID, "panic", p)
			if err := d.pr.UpdateDispatchResult(ctx, post.ID, models.StatusFailed, nil, reason); err != nil {
				slog.Error("failed to record dispatch panic", "post_id", post.ID, "error", err)
			}
			d.publishEvent(ctx, post.ID, string(models.StatusFailed), nil, reason)
			outcome = transfer.DispatchOutcome{
				PostID:  post.ID,
				Status:  string(models.StatusFailed),
				Success: false,
				Error:   reason,
			}
		}
	}()

	if d.cfg.DispatchMode == DispatchModeWebhook {
		return d.forwardClaimed(ctx, post)
	}

	result := d.Dispatch(ctx, post)

	status := models.StatusPartialSuccess
	switch {
	case result.Success:
		status = models.StatusPosted
	case len(result.Links) == 0:
		status = models.StatusFailed
	}

	if err := d.pr.UpdateDispatchResult(ctx, post.ID, status, result.Links, result.Error); err != nil {
		return transfer.DispatchOutcome{
			PostID:  post.ID,
			Status:  string(post.Status),
			Links:   result.Links,
			Success: false,
			Error:   fmt.Sprintf("persisting dispatch result: %v", err),
		}
	}

	d.publishEvent(ctx, post.ID, string(status), result.Links, result.Error)

	return transfer.DispatchOutcome{
		PostID:  post.ID,
		Status:  string(status),
		Links:   result.Links,
		Success: result.Success,
		Error:   result.Error,
	}
}

// forwardClaimed hands the record to the external workflow-automation
// webhook. The record stays in_flight until the completion callback reports
// which platform URLs were produced.
func (d *Dispatcher) forwardClaimed(ctx context.Context, post *models.Post) transfer.DispatchOutcome {
	if err := d.forward(ctx, post); err != nil {
		reason := fmt.Sprintf("forwarding to automation webhook: %v", err)
		if uerr := d.pr.UpdateDispatchResult(ctx, post.ID, models.StatusFailed, nil, reason); uerr != nil {
			slog.Error("failed to record forward failure", "post_id", post.ID, "error", uerr)
		}
		d.publishEvent(ctx, post.ID, string(models.StatusFailed), nil, reason)
		return transfer.DispatchOutcome{
			PostID:  post.ID,
			Status:  string(models.StatusFailed),
			Success: false,
			Error:   reason,
		}
	}

	d.publishEvent(ctx, post.ID, string(models.StatusInFlight), nil, "")

	return transfer.DispatchOutcome{
		PostID:  post.ID,
		Status:  string(models.StatusInFlight),
		Success: true,
	}
}

func (d *Dispatcher) forward(ctx context.Context, post *models.Post) error {
	if d.cfg.AutomationWebhookURL == "" {
		return fmt.Errorf("automation webhook URL is not configured")
	}

	body, err := json.Marshal(post)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.cfg.AutomationWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func (d *Dispatcher) publishEvent(ctx context.Context, postID, status string, links map[string]string, dispatchErr string) {
	if d.ev == nil {
		return
	}
	e := events.NewPostDispatched(postID, status, links, dispatchErr)
	if err := d.ev.PublishPostDispatched(ctx, e); err != nil {
		slog.Error("failed to publish dispatch event", "post_id", postID, "error", err)
	}
}
