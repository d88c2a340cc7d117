package steps

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/prompts"
)

const maxReasonRunes = 500

// surfaceForms are tried in order for every candidate; the first form with a hit
// locates its mentions. The bare form comes last.
var surfaceForms = [][2]string{
	{"「", "」"},
	{"『", "』"},
	{"《", "》"},
	{"〈", "〉"},
	{"<", ">"},
	{"[", "]"},
	{"【", "】"},
	{"**", "**"},
	{`"`, `"`},
	{"“", "”"},
	{"'", "'"},
	{"‘", "’"},
	{"*", "*"},
	{"", ""},
}

var (
	reasonTrailingMarker = regexp.MustCompile(`(?:^|\n)[ \t]*(?:\d{1,2}[.)]|[-*•])[ \t]*$`)
	reasonLeadTrim       = ":：-–—,.!?、)」』》〉>]】*\"'”’ \t\r\n"
	reasonTailTrim       = "(「『《〈<[【*\"'“‘:：-–—, \t\r\n"
)

// ExtractPicks turns a drafted answer into exactly PickCount picks drawn from
// candidates. The answer is read as the structured JSON the drafting prompt asks
// for; when that yields fewer than PickCount picks the text is scanned for title
// mentions of the remaining candidates. Picks are completed in rank order with a
// templated reason. Candidates are the list the draft was prompted with, in rank
// order.
func ExtractPicks(text string, candidates []rec.Candidate) ([]rec.Pick, error) {
	eligible := eligibleCandidates(candidates)
	if len(eligible) < rec.PickCount {
		return nil, &ExtractionImpossibleError{Eligible: len(eligible), Required: rec.PickCount}
	}

	picks := extractStructured(text, candidates, eligible)
	if len(picks) < rec.PickCount {
		picks = appendUnpicked(picks, extractMentions(text, eligible))
	}
	if len(picks) > rec.PickCount {
		picks = picks[:rec.PickCount]
	}
	return fillByRank(picks, eligible), nil
}

// eligibleCandidates keeps the first candidate per id, dropping untitled entries.
func eligibleCandidates(candidates []rec.Candidate) []rec.Candidate {
	out := make([]rec.Candidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		id := strings.TrimSpace(c.Item.ID)
		if id == "" || strings.TrimSpace(c.Item.Title) == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, c)
	}
	return out
}

type structuredAnswer struct {
	Recommendations []struct {
		Index  any    `json:"index"`
		Title  string `json:"title"`
		Reason string `json:"reason"`
	} `json:"recommendations"`
}

func extractStructured(text string, candidates, eligible []rec.Candidate) []rec.Pick {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}
	var ans structuredAnswer
	if err := json.Unmarshal([]byte(text[start:end+1]), &ans); err != nil {
		return nil
	}

	eligibleIDs := make(map[string]struct{}, len(eligible))
	for _, c := range eligible {
		eligibleIDs[c.Item.ID] = struct{}{}
	}
	picked := map[string]struct{}{}
	out := make([]rec.Pick, 0, rec.PickCount)
	for _, r := range ans.Recommendations {
		c, ok := candidateByIndex(candidates, r.Index)
		if ok {
			if _, isEligible := eligibleIDs[c.Item.ID]; !isEligible {
				ok = false
			}
		}
		if !ok {
			c, ok = candidateByTitle(eligible, r.Title)
		}
		if !ok {
			continue
		}
		if _, dup := picked[c.Item.ID]; dup {
			continue
		}
		picked[c.Item.ID] = struct{}{}
		out = append(out, newPick(c, cleanReason(r.Reason)))
	}
	return out
}

func candidateByIndex(candidates []rec.Candidate, raw any) (rec.Candidate, bool) {
	var idx int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return rec.Candidate{}, false
		}
		idx = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return rec.Candidate{}, false
		}
		idx = n
	default:
		return rec.Candidate{}, false
	}
	if idx < 1 || idx > len(candidates) {
		return rec.Candidate{}, false
	}
	return candidates[idx-1], true
}

func candidateByTitle(eligible []rec.Candidate, title string) (rec.Candidate, bool) {
	want := normalizeTitle(strings.Trim(title, reasonLeadTrim+reasonTailTrim))
	if want == "" {
		return rec.Candidate{}, false
	}
	for _, c := range eligible {
		if normalizeTitle(c.Item.Title) == want {
			return c, true
		}
	}
	for _, c := range eligible {
		if MatchTitle(c.Item.Title, want) {
			return c, true
		}
	}
	return rec.Candidate{}, false
}

type mention struct {
	cand  int
	start int
	end   int
}

// extractMentions scans free text for candidate titles. Overlapping hits resolve to
// the longer one, and a candidate's first surviving hit is its mention. Its reason
// runs to the next mention of a different candidate.
func extractMentions(text string, eligible []rec.Candidate) []rec.Pick {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var found []mention
	for i, c := range eligible {
		for _, form := range surfaceForms {
			re := titlePattern(c.Item.Title, form[0], form[1])
			if re == nil {
				continue
			}
			locs := re.FindAllStringIndex(text, -1)
			if form[0] == "" {
				locs = boundedMatches(text, locs)
			}
			if len(locs) == 0 {
				continue
			}
			for _, loc := range locs {
				found = append(found, mention{cand: i, start: loc[0], end: loc[1]})
			}
			break
		}
	}
	if len(found) == 0 {
		return nil
	}

	sort.SliceStable(found, func(a, b int) bool {
		if found[a].start != found[b].start {
			return found[a].start < found[b].start
		}
		return found[a].end-found[a].start > found[b].end-found[b].start
	})
	accepted := make([]mention, 0, len(found))
	for _, m := range found {
		if n := len(accepted); n > 0 && m.start < accepted[n-1].end {
			prev := accepted[n-1]
			if m.end-m.start > prev.end-prev.start {
				accepted[n-1] = m
			}
			continue
		}
		accepted = append(accepted, m)
	}

	picked := map[int]struct{}{}
	out := make([]rec.Pick, 0, rec.PickCount)
	for i, m := range accepted {
		if _, dup := picked[m.cand]; dup {
			continue
		}
		picked[m.cand] = struct{}{}
		stop := len(text)
		for _, next := range accepted[i+1:] {
			if next.cand != m.cand {
				stop = next.start
				break
			}
		}
		out = append(out, newPick(eligible[m.cand], cleanReason(text[m.end:stop])))
	}
	return out
}

// titlePattern matches title case-insensitively with any run of whitespace between
// its words, wrapped in open/close when given.
func titlePattern(title, open, close string) *regexp.Regexp {
	words := strings.Fields(title)
	if len(words) == 0 {
		return nil
	}
	if open == "" && utf8.RuneCountInString(strings.Join(words, "")) < 2 {
		return nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	body := strings.Join(quoted, `\s+`)
	if open != "" {
		body = regexp.QuoteMeta(open) + `\s*` + body + `\s*` + regexp.QuoteMeta(close)
	}
	re, err := regexp.Compile(`(?i)` + body)
	if err != nil {
		return nil
	}
	return re
}

// boundedMatches drops bare hits glued to surrounding Latin letters or digits, so
// "Nana" does not match inside "Banana". Hangul particles may follow a title directly.
func boundedMatches(text string, locs [][]int) [][]int {
	out := locs[:0]
	for _, loc := range locs {
		first, _ := utf8.DecodeRuneInString(text[loc[0]:])
		last, _ := utf8.DecodeLastRuneInString(text[:loc[1]])
		if loc[0] > 0 && isASCIIWord(first) {
			if prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]]); isASCIIWord(prev) {
				continue
			}
		}
		if loc[1] < len(text) && isASCIIWord(last) {
			if next, _ := utf8.DecodeRuneInString(text[loc[1]:]); isASCIIWord(next) {
				continue
			}
		}
		out = append(out, loc)
	}
	return out
}

func isASCIIWord(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// cleanReason trims connective punctuation and a trailing list marker, collapses
// whitespace and caps the length.
func cleanReason(raw string) string {
	s := strings.TrimLeft(raw, reasonLeadTrim)
	for {
		trimmed := reasonTrailingMarker.ReplaceAllString(strings.TrimRight(s, reasonTailTrim), "")
		if trimmed == s {
			break
		}
		s = trimmed
	}
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxReasonRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxReasonRunes]))
	}
	return s
}

func newPick(c rec.Candidate, reason string) rec.Pick {
	if reason == "" {
		reason = prompts.FallbackReason(c.Score)
	}
	return rec.Pick{Item: c.Item, Score: c.Score, Reason: reason}
}

// appendUnpicked adds extra picks whose items are not already in picks.
func appendUnpicked(picks, extra []rec.Pick) []rec.Pick {
	have := make(map[string]struct{}, len(picks))
	for _, p := range picks {
		have[p.Item.ID] = struct{}{}
	}
	for _, p := range extra {
		if _, ok := have[p.Item.ID]; ok {
			continue
		}
		have[p.Item.ID] = struct{}{}
		picks = append(picks, p)
	}
	return picks
}

// fillByRank completes picks from the ranked list, skipping items already picked.
func fillByRank(picks []rec.Pick, ranked []rec.Candidate) []rec.Pick {
	have := make(map[string]struct{}, len(picks))
	for _, p := range picks {
		have[p.Item.ID] = struct{}{}
	}
	for _, c := range ranked {
		if len(picks) >= rec.PickCount {
			break
		}
		if _, ok := have[c.Item.ID]; ok {
			continue
		}
		have[c.Item.ID] = struct{}{}
		picks = append(picks, rec.Pick{
			Item:     c.Item,
			Score:    c.Score,
			Reason:   prompts.FallbackReason(c.Score),
			Fallback: true,
		})
	}
	return picks
}
