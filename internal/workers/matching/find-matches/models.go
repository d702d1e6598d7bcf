// internal/workers/matching/find-matches/models.go
package findmatches

import "time"

type Input struct {
	ItemID            int64    `json:"itemId"`
	Limit             int      `json:"limit,omitempty"`
	TimeWindowDays    int      `json:"timeWindowDays,omitempty"`
	MinScore          *float64 `json:"minScore,omitempty"`
	UseTextSimilarity *bool    `json:"useTextSimilarity,omitempty"`
}

type Match struct {
	ItemID     int64      `json:"itemId"`
	Title      string     `json:"title"`
	Kind       string     `json:"kind"`
	Score      float64    `json:"similarityScore"`
	Location   *string    `json:"location,omitempty"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}

type Output struct {
	ItemID  int64   `json:"itemId"`
	Matches []Match `json:"matches"`
	Count   int     `json:"count"`
	Cached  bool    `json:"cached"`
}

// inputSchema validates job variables before they reach the engine.
var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"itemId"},
	"properties": map[string]interface{}{
		"itemId": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
		},
		"limit": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
			"maximum": 50,
		},
		"timeWindowDays": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
			"maximum": 30,
		},
		"minScore": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 100,
		},
		"useTextSimilarity": map[string]interface{}{
			"type": "boolean",
		},
	},
}
