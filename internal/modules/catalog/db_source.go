package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

// DBSource reads the catalog_item table in primary-key order.
type DBSource struct {
	log *logger.Logger
	db  *gorm.DB
}

func NewDBSource(log *logger.Logger, db *gorm.DB) *DBSource {
	return &DBSource{log: log.With("service", "DBCatalogSource"), db: db}
}

func (s *DBSource) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&catalog.Row{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count catalog rows: %w", err)
	}
	return int(n), nil
}

func (s *DBSource) Batches(ctx context.Context, size int, fn func([]catalog.Item) error) error {
	if size <= 0 {
		size = 1000
	}
	seen := newDedupe()
	var rows []catalog.Row
	skipped := 0
	res := s.db.WithContext(ctx).Order("id").FindInBatches(&rows, size, func(tx *gorm.DB, batch int) error {
		items := make([]catalog.Item, 0, len(rows))
		for _, r := range rows {
			it := r.Item()
			if !usable(it) || !seen.first(it) {
				skipped++
				continue
			}
			items = append(items, it)
		}
		s.log.Debug("catalog db batch read", "batch", batch, "rows", len(rows), "kept", len(items))
		if len(items) == 0 {
			return nil
		}
		return fn(items)
	})
	if res.Error != nil {
		return fmt.Errorf("read catalog rows: %w", res.Error)
	}
	if skipped > 0 {
		s.log.Info("catalog db rows skipped", "skipped", skipped)
	}
	return nil
}
