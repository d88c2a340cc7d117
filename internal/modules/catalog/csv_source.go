package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

// Export column names.
const (
	colID       = "id"
	colName     = "prdct_nm"
	colSubtitle = "subtitl"
	colFullName = "title"
	colGenre    = "main_genre_cd_nm"
	colAge      = "age_grad_cd_nm"
	colAuthor   = "pictr_writr_nm"
	colOutline  = "outline"
	colImage    = "image_download_url"
)

// CSVSource reads a catalog export. The file is parsed once and cleaned: rows
// without a title or synopsis are dropped and duplicate ids or titles keep the
// first occurrence.
type CSVSource struct {
	log  *logger.Logger
	path string

	once  sync.Once
	items []catalog.Item
	err   error
}

func NewCSVSource(log *logger.Logger, path string) *CSVSource {
	return &CSVSource{log: log.With("service", "CSVCatalogSource"), path: path}
}

func (s *CSVSource) Count(ctx context.Context) (int, error) {
	items, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *CSVSource) Batches(ctx context.Context, size int, fn func([]catalog.Item) error) error {
	items, err := s.load()
	if err != nil {
		return err
	}
	if size <= 0 {
		size = len(items)
	}
	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		if err := fn(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *CSVSource) load() ([]catalog.Item, error) {
	s.once.Do(func() {
		f, err := os.Open(s.path)
		if err != nil {
			s.err = fmt.Errorf("open catalog csv: %w", err)
			return
		}
		defer f.Close()
		s.items, s.err = s.parse(f)
	})
	return s.items, s.err
}

func (s *CSVSource) parse(r io.Reader) ([]catalog.Item, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog csv header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[strings.ToLower(h)] = i
	}
	if _, ok := cols[colID]; !ok {
		return nil, fmt.Errorf("catalog csv: missing %q column", colID)
	}

	seen := newDedupe()
	var (
		out                  []catalog.Item
		rows, skipped, dupes int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog csv row %d: %w", rows+2, err)
		}
		rows++
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		title := field(colName)
		if title == "" {
			title = field(colFullName)
		}
		it := catalog.Item{
			ID:        field(colID),
			Title:     title,
			Subtitle:  field(colSubtitle),
			Genres:    catalog.SplitGenres(field(colGenre)),
			Author:    field(colAuthor),
			Synopsis:  field(colOutline),
			AgeRating: catalog.ParseAgeRating(field(colAge)),
			ImageURL:  field(colImage),
		}
		if !usable(it) {
			skipped++
			continue
		}
		if !seen.first(it) {
			dupes++
			continue
		}
		out = append(out, it)
	}

	s.log.Info("catalog csv loaded", "path", s.path, "rows", rows, "kept", len(out), "skipped", skipped, "duplicates", dupes)
	return out, nil
}
