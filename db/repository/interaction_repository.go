package repository

import (
	"github.com/crossposter/mastodon-comments/db/models"
	"gorm.io/gorm"
)

// InteractionRepository is the deduplication ledger. Exists is checked right
// before a comment insert; Record runs only after the insert succeeded. The
// ledger records completed work, it is not a lock.
type InteractionRepository interface {
	Exists(source string, postID int64) (bool, error)
	Record(source string, postID int64, ip string) (*models.ImportedInteraction, error)
}

// GormInteractionRepository implements InteractionRepository using GORM
type GormInteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new ledger repository
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &GormInteractionRepository{db: db}
}

// Exists checks whether an interaction was already imported for a post
func (r *GormInteractionRepository) Exists(source string, postID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.ImportedInteraction{}).
		Where("source = ? AND post_id = ?", source, postID).
		Count(&count).Error
	return count > 0, err
}

// Record marks an interaction as imported
func (r *GormInteractionRepository) Record(source string, postID int64, ip string) (*models.ImportedInteraction, error) {
	entry := &models.ImportedInteraction{
		Source: source,
		PostID: postID,
		IP:     ip,
		Status: models.StatusComplete,
	}

	if err := r.db.Create(entry).Error; err != nil {
		return nil, err
	}

	return entry, nil
}
