package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Row is the persisted catalog record read by the database catalog source.
type Row struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	Title     string         `gorm:"column:title;not null;index" json:"title"`
	Subtitle  string         `gorm:"column:subtitle" json:"subtitle,omitempty"`
	Genres    datatypes.JSON `gorm:"column:genres" json:"genres,omitempty"`
	Author    string         `gorm:"column:author" json:"author,omitempty"`
	Synopsis  string         `gorm:"column:synopsis;type:text" json:"synopsis,omitempty"`
	AgeGrade  string         `gorm:"column:age_grade" json:"age_grade,omitempty"`
	ImageURL  string         `gorm:"column:image_url" json:"image_url,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Row) TableName() string { return "catalog_item" }

// Item converts the row into the engine's read-only view.
func (r Row) Item() Item {
	var genres []string
	if len(r.Genres) > 0 {
		if err := json.Unmarshal(r.Genres, &genres); err != nil {
			genres = SplitGenres(string(r.Genres))
		}
	}
	return Item{
		ID:        strings.TrimSpace(r.ID),
		Title:     strings.TrimSpace(r.Title),
		Subtitle:  strings.TrimSpace(r.Subtitle),
		Genres:    genres,
		Author:    strings.TrimSpace(r.Author),
		Synopsis:  strings.TrimSpace(r.Synopsis),
		AgeRating: ParseAgeRating(r.AgeGrade),
		ImageURL:  strings.TrimSpace(r.ImageURL),
	}
}
