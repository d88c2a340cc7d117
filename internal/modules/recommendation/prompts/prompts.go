package prompts

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

// NoteRunes caps how much of each search note reaches a prompt.
const NoteRunes = 200

// SearchQuery is the web search query used to enrich a title.
func SearchQuery(title string) string {
	return strings.TrimSpace(title) + " manga"
}

// Recommendation builds the drafting prompt. Candidates are numbered from 1 in the
// order given; the answer refers back to those numbers.
func Recommendation(profile rec.Profile, notes rec.Notes, candidates []rec.Candidate) (system string, user string) {
	system = `You are a manga recommendation expert.
Choose exactly 3 of the numbered candidates for this reader and explain each choice by
relating it to the reader's favorites. Return ONLY JSON matching the requested format.`

	var b strings.Builder
	b.WriteString("[Reader's favorites]\n")
	if len(profile.Favorites) == 0 {
		b.WriteString("- (none given)\n")
	}
	for _, f := range profile.Favorites {
		fmt.Fprintf(&b, "- %s\n  Web notes: %s\n", f, noteOrPlaceholder(notes.Favorite(f)))
	}

	b.WriteString("\n[Reader profile]\n")
	b.WriteString("- Preferred genres: " + joinOr(profile.Genres, "any") + "\n")
	b.WriteString("- Age group: " + string(profile.AgeBracket) + "\n")
	b.WriteString("- Gender: " + string(profile.Gender) + "\n")
	b.WriteString("- Demographic: " + string(profile.Demographic) + "\n")

	b.WriteString("\n[Candidates]\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. 「%s」\n", i+1, c.Item.Title)
		if len(c.Item.Genres) > 0 {
			b.WriteString("   Genres: " + strings.Join(c.Item.Genres, ", ") + "\n")
		}
		if c.Item.Author != "" {
			b.WriteString("   Author: " + c.Item.Author + "\n")
		}
		if s := strings.TrimSpace(c.Item.Synopsis); s != "" {
			b.WriteString("   Synopsis: " + s + "\n")
		}
		b.WriteString("   Web notes: " + noteOrPlaceholder(notes.Item(c.Item.ID)) + "\n")
	}

	fmt.Fprintf(&b, `
Pick the 3 candidates from the %d above that suit this reader best. Use the candidate
numbers exactly as listed and write each title inside 「」 in the reason.

{
  "recommendations": [
    {"index": <number>, "title": "<title>", "reason": "<why it fits, tied to the favorites>"},
    {"index": <number>, "title": "<title>", "reason": "<why it fits, tied to the favorites>"},
    {"index": <number>, "title": "<title>", "reason": "<why it fits, tied to the favorites>"}
  ]
}`, len(candidates))
	return system, b.String()
}

// Validation builds the quality scoring prompt for a finished pick list.
func Validation(profile rec.Profile, picks []rec.Pick) (system string, user string) {
	system = `You review the quality of manga recommendations.
Score how well the picks suit the reader from 0 to 100. Return ONLY JSON matching the schema.`

	var b strings.Builder
	b.WriteString("[Reader profile]\n")
	b.WriteString("- Age group: " + string(profile.AgeBracket) + "\n")
	b.WriteString("- Preferred genres: " + joinOr(profile.Genres, "any") + "\n")
	b.WriteString("- Favorites: " + joinOr(profile.Favorites, "none") + "\n")

	fmt.Fprintf(&b, "\n[Recommendations (%d)]\n", len(picks))
	for i, p := range picks {
		fmt.Fprintf(&b, "%d. 「%s」", i+1, p.Item.Title)
		if len(p.Item.Genres) > 0 {
			b.WriteString(" (" + strings.Join(p.Item.Genres, ", ") + ")")
		}
		b.WriteString("\n   Reason: " + p.Reason + "\n")
	}
	b.WriteString(`
Judge whether all 3 recommendations are present and fit the reader's taste. A score of
75 or more means the list is good enough to show. Give the rationale in 2-3 sentences.`)
	return system, b.String()
}

// ScoreSchema is the structured output schema for Validation.
func ScoreSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":     map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"pass":      map[string]any{"type": "boolean"},
			"reasoning": map[string]any{"type": "string"},
		},
		"required":             []any{"score", "pass", "reasoning"},
		"additionalProperties": false,
	}
}

// FallbackReason is the justification used when a pick is filled by rank.
func FallbackReason(score float64) string {
	return "Recommended for its high similarity to your favorites (score " + strconv.FormatFloat(score, 'f', 3, 64) + ")."
}

func noteOrPlaceholder(note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return "(no additional information)"
	}
	if utf8.RuneCountInString(note) > NoteRunes {
		r := []rune(note)
		return string(r[:NoteRunes]) + "..."
	}
	return note
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
