package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

const sampleCSV = "\ufeffid,prdct_nm,subtitl,title,main_genre_cd_nm,age_grad_cd_nm,pictr_writr_nm,outline,image_download_url\n" +
	"1,슬램덩크,,슬램덩크 1권,스포츠,전체연령,이노우에 다케히코,농구 이야기,http://img/1\n" +
	"2,베르세르크,,,\"액션, 판타지\",청소년이용불가,미우라 켄타로,검사의 복수,\n" +
	"3,제목없음,,,드라마,12세이상,,,\n" +
	"1,중복아이디,,,드라마,전체연령,,다른 줄거리,\n" +
	"4,슬램덩크,,,스포츠,전체연령,,중복 제목,\n" +
	"5,,,요츠바랑 전체,코믹,전체연령,,일상 이야기,\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestCSVSourceCleansRows(t *testing.T) {
	src := NewCSVSource(logger.Nop(), writeCSV(t, sampleCSV))
	n, err := src.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("Count: want=3 got=%d", n)
	}

	var got []catalog.Item
	err = src.Batches(context.Background(), 2, func(items []catalog.Item) error {
		if len(items) > 2 {
			t.Fatalf("batch size: want<=2 got=%d", len(items))
		}
		got = append(got, items...)
		return nil
	})
	if err != nil {
		t.Fatalf("Batches: %v", err)
	}
	if got[0].ID != "1" || got[1].ID != "2" || got[2].ID != "5" {
		t.Fatalf("ids: got=%v,%v,%v", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[1].AgeRating != catalog.Age19 || len(got[1].Genres) != 2 || got[1].Author != "미우라 켄타로" {
		t.Fatalf("row 2 mapping: got=%+v", got[1])
	}
	if got[0].ImageURL != "http://img/1" || got[0].Synopsis != "농구 이야기" {
		t.Fatalf("row 1 mapping: got=%+v", got[0])
	}
	if got[2].Title != "요츠바랑 전체" {
		t.Fatalf("title fallback: want=%q got=%q", "요츠바랑 전체", got[2].Title)
	}
}

func TestCSVSourceMissingIDColumn(t *testing.T) {
	src := NewCSVSource(logger.Nop(), writeCSV(t, "prdct_nm,outline\nA,B\n"))
	if _, err := src.Count(context.Background()); err == nil {
		t.Fatalf("Count: expected error for missing id column")
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(logger.Nop(), filepath.Join(t.TempDir(), "nope.csv"))
	if err := src.Batches(context.Background(), 10, func([]catalog.Item) error { return nil }); err == nil {
		t.Fatalf("Batches: expected error for missing file")
	}
}
