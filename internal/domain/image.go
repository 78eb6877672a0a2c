package domain

import "time"

// Generation statuses stored in the history table
const (
	StatusPending = "Pending"
	StatusDone    = "Done"
	StatusFailed  = "Failed"
)

// Generation represents one image generation attempt and its outcome
type Generation struct {
	ID        int
	Prompt    string
	FilePath  string
	ImageURL  string
	Status    string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
