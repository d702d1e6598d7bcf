// internal/models/notification.go
package models

import "time"

// MatchNotification is the intent to tell an item's author that a
// promising counterpart was posted.
type MatchNotification struct {
	ID              string    `json:"id"`
	RecipientUserID int64     `json:"recipientUserId"`
	SourceItemID    int64     `json:"sourceItemId"`
	CandidateItemID int64     `json:"candidateItemId"`
	Score           float64   `json:"score"`
	Summary         string    `json:"summary"`
	CreatedAt       time.Time `json:"createdAt"`
}
