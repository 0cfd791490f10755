package transfer

// PostCreation is the JSON blob carried in the multipart "post" field of the
// create and update forms. Media files travel as separate multipart parts.
type PostCreation struct {
	Content       string   `json:"content"`
	ScheduledDate string   `json:"scheduled_date"`
	Team          string   `json:"team"`
	Notes         string   `json:"notes"`
	Status        string   `json:"status"`
	Platforms     []string `json:"platforms"`
}

// DeletedMedia describes an existing attachment the edit form removed.
type DeletedMedia struct {
	URL string `json:"url"`
}

type DeleteRequest struct {
	ID        string `json:"id"`
	SecretKey string `json:"secretKey"`
}

// StatusCounts mirrors the dashboard counter row. InFlight records are
// reported under Pending because the claim marker is transient.
type StatusCounts struct {
	Total          int `json:"total"`
	Draft          int `json:"draft"`
	Pending        int `json:"pending"`
	Posted         int `json:"posted"`
	Failed         int `json:"failed"`
	PartialSuccess int `json:"partialSuccess"`
}
