package promptstyle

import "strings"

const marker = "MANGA_RECOMMENDER_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to system prompts. Prompts that
// already carry the block are returned unchanged.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou assist a manga recommendation service.")
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nOnly refer to titles that appear in the provided inputs.")
	if strings.EqualFold(strings.TrimSpace(mode), "json") {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	} else {
		b.WriteString("\nIf an output format is specified, output only that format.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
