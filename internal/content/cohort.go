package content

import "time"

// Cohort is a per-group schedule record applied at read time to a hub's
// learning path. It never mutates the stored PageBundle.
type Cohort struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	HubNotionID string    `json:"hub_notion_id"`
	Timezone    string    `json:"timezone"`
	StartDate   time.Time `json:"start_date"`
}

// SyncReport summarizes one synchronization run.
type SyncReport struct {
	StartedAt   time.Time         `json:"started_at"`
	Duration    time.Duration     `json:"duration"`
	Synced      []string          `json:"synced,omitempty"`
	Failed      map[string]string `json:"failed,omitempty"`
	Conflicts   []string          `json:"conflicts,omitempty"`
	IndexCounts map[string]int    `json:"index_counts,omitempty"`
}
