package transfer

// PublishResult is what a single platform publisher returns for one attempt.
type PublishResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DispatchResult merges the per-platform results of one dispatch attempt.
// Success is true only when every listed platform succeeded.
type DispatchResult struct {
	Success bool              `json:"success"`
	Links   map[string]string `json:"links"`
	Error   string            `json:"error,omitempty"`
}

// DispatchOutcome is one row of the trigger response.
type DispatchOutcome struct {
	PostID  string            `json:"postId"`
	Status  string            `json:"status"`
	Links   map[string]string `json:"links,omitempty"`
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
}

// CompletionPayload is posted back by the workflow-automation system once it
// has finished publishing a forwarded record.
type CompletionPayload struct {
	PostID       string `json:"post_id"`
	LinkedInURL  string `json:"linkedin_url"`
	InstagramURL string `json:"instagram_url"`
	FacebookURL  string `json:"facebook_url"`
}
