package catalog

import (
	"context"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&catalog.Row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestDBSourceStreamsUsableRows(t *testing.T) {
	db := newTestDB(t)
	rows := []catalog.Row{
		{ID: "a", Title: "Alpha", Synopsis: "first", Genres: datatypes.JSON(`["Action","Drama"]`), AgeGrade: "15세이상"},
		{ID: "b", Title: "Beta", Synopsis: ""},
		{ID: "c", Title: "Gamma", Synopsis: "third", Genres: datatypes.JSON(`로맨스, 코믹`)},
		{ID: "d", Title: "alpha", Synopsis: "dup title"},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	src := NewDBSource(logger.Nop(), db)
	n, err := src.Count(context.Background())
	if err != nil || n != 4 {
		t.Fatalf("Count: want=4 got=%d err=%v", n, err)
	}

	var got []catalog.Item
	batches := 0
	err = src.Batches(context.Background(), 2, func(items []catalog.Item) error {
		batches++
		got = append(got, items...)
		return nil
	})
	if err != nil {
		t.Fatalf("Batches: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("items: got=%+v", got)
	}
	if batches != 2 {
		t.Fatalf("batches: want=2 got=%d", batches)
	}
	if got[0].AgeRating != catalog.Age15 || len(got[0].Genres) != 2 {
		t.Fatalf("row a mapping: got=%+v", got[0])
	}
	if len(got[1].Genres) != 2 || got[1].Genres[0] != "로맨스" {
		t.Fatalf("plain genre fallback: got=%v", got[1].Genres)
	}
}
