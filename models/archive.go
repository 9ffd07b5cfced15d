package models

import "time"

// ArchiveEntry - снимок завершённого турнира для страницы архива.
// BracketPayload хранит JSON-срез этапов с участниками и матчами.
type ArchiveEntry struct {
	ID             int       `json:"id"`
	PublicKey      string    `json:"public_key"`
	Season         string    `json:"season"`
	Title          string    `json:"title"`
	ChampionName   string    `json:"champion_name"`
	BracketPayload string    `json:"-"`
	SnapshotURL    *string   `json:"snapshot_url,omitempty"`
	IsPublished    bool      `json:"is_published"`
	CreatedAt      time.Time `json:"created_at"`
}
