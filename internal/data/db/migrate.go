package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(&catalog.Row{}); err != nil {
		return fmt.Errorf("auto-migrate catalog: %w", err)
	}
	return nil
}
