package transfer

// WebhookPost is the payload of the inbound content-source webhook. The field
// names follow that source's camelCase property convention.
type WebhookPost struct {
	Content       string   `json:"content"`
	MediaURLs     []string `json:"mediaUrls"`
	ScheduledDate string   `json:"scheduledDate"`
	Team          string   `json:"team"`
	Notes         string   `json:"notes"`
	Status        string   `json:"status"`
	Platforms     []string `json:"platforms"`
}
