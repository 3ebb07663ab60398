package models

import (
	"time"
)

// StatusComplete is the only status normal operation ever writes. A row is
// inserted after the comment exists, never before, so every row is a record
// of completed work.
const StatusComplete = "complete"

// ImportedInteraction is one remote interaction that has been imported as a
// comment. Source is the reply's URL, or the acting account's URL for
// favorites and boosts; the same account URL may legitimately appear once
// per post, so uniqueness is on (source, post_id).
type ImportedInteraction struct {
	ID        uint   `gorm:"primaryKey"`
	Source    string `gorm:"uniqueIndex:idx_interactions_source_post;size:191;not null"`
	PostID    int64  `gorm:"uniqueIndex:idx_interactions_source_post;not null"`
	IP        string `gorm:"size:100"`
	Status    string `gorm:"size:20"`
	CreatedAt time.Time
}

// TableName overrides the table name
func (ImportedInteraction) TableName() string {
	return "imported_interactions"
}
