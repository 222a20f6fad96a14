package retrieval

import (
	"fmt"
	"strings"
)

// NoRelevantMovies 无命中时的固定文案
const NoRelevantMovies = "No relevant movies found."

// Render 将检索结果格式化为 prompt 与 trace 共用的文本，输出完全由输入决定
func Render(r *Result) string {
	return RenderWithLimit(r, 0)
}

// RenderWithLimit 同 Render，maxOverviewRunes > 0 时截断简介
func RenderWithLimit(r *Result, maxOverviewRunes int) string {
	if r.Empty() {
		return NoRelevantMovies
	}

	var sb strings.Builder
	for i, m := range r.Movies {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%d] %s (%s) | %s | Rating: %s | Director: %s",
			i+1,
			compactOneLine(m.Title),
			compactOneLine(m.Year),
			compactOneLine(m.Genre),
			compactOneLine(m.Rating),
			compactOneLine(m.Director),
		)
		overview := compactOneLine(m.Overview)
		if maxOverviewRunes > 0 {
			overview = truncateRunes(overview, maxOverviewRunes)
		}
		sb.WriteString("\n    ")
		sb.WriteString(overview)
	}
	return sb.String()
}

func compactOneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}
