// internal/models/item.go
package models

import "time"

// ItemKind distinguishes lost reports from found reports. General posts
// take no part in matching.
type ItemKind string

const (
	KindLost    ItemKind = "lost"
	KindFound   ItemKind = "found"
	KindGeneral ItemKind = "general"
)

// ItemStatus is the lifecycle state of an item report.
type ItemStatus string

const (
	StatusPublished ItemStatus = "published"
	StatusActive    ItemStatus = "active"
	StatusDraft     ItemStatus = "draft"
	StatusDeleted   ItemStatus = "deleted"
)

// Item is a lost or found item report.
type Item struct {
	ID         int64      `json:"id"`
	AuthorID   int64      `json:"authorId"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Kind       ItemKind   `json:"kind"`
	CategoryID *int64     `json:"categoryId,omitempty"`
	Location   *string    `json:"location,omitempty"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
	Status     ItemStatus `json:"status"`
	Claimed    bool       `json:"claimed"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// OppositeKind returns the kind an item should be matched against.
// General items have no counterpart.
func (i *Item) OppositeKind() (ItemKind, bool) {
	switch i.Kind {
	case KindLost:
		return KindFound, true
	case KindFound:
		return KindLost, true
	default:
		return "", false
	}
}

// Text joins title and body for similarity scoring.
func (i *Item) Text() string {
	if i.Body == "" {
		return i.Title
	}
	return i.Title + " " + i.Body
}

// Visible reports whether the item may act as a match source or
// candidate.
func (i *Item) Visible() bool {
	return (i.Status == StatusPublished || i.Status == StatusActive) && !i.Claimed
}

// ScoredCandidate pairs a candidate item with its composite match
// score in [0, 100].
type ScoredCandidate struct {
	Item  *Item   `json:"item"`
	Score float64 `json:"score"`
}

// ScoreBreakdown carries the per-signal components of a composite
// score, each already scaled to [0, 100].
type ScoreBreakdown struct {
	Text     float64 `json:"text"`
	Category float64 `json:"category"`
	Location float64 `json:"location"`
	Time     float64 `json:"time"`
	Final    float64 `json:"final"`
}
