// internal/workers/matching/match-on-create/models.go
package matchoncreate

type Input struct {
	ItemID int64 `json:"itemId"`
}

type Output struct {
	ItemID        int64  `json:"itemId"`
	Notifications int    `json:"notificationsSent"`
	CheckedAt     string `json:"checkedAt"`
}
