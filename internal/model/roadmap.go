package model

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// Roadmap is one project's roadmap document. Data is opaque to the bot and is
// handed to the language model as-is.
type Roadmap struct {
	ProjectID string          `json:"project_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Name returns data.name when the document carries one.
func (r Roadmap) Name() string {
	return gjson.GetBytes(r.Data, "name").String()
}

type RoadmapSummary struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name,omitempty"`
}
