package usecase

import (
	"fmt"
	"strings"

	"github.com/user/profile-extractor/internal/entity"
)

// Aggregate joins crawled pages into one corpus. The depth-0 page (or the
// first page when there is none) leads, labeled as the main page; the rest
// follow in discovery order. Nothing is truncated here.
func Aggregate(pages []*entity.CrawledPage) string {
	if len(pages) == 0 {
		return ""
	}

	main := 0
	for i, p := range pages {
		if p.Depth == 0 {
			main = i
			break
		}
	}

	var sb strings.Builder
	writeSection(&sb, "MAIN PAGE", pages[main])
	for i, p := range pages {
		if i == main {
			continue
		}
		sb.WriteString("\n\n")
		writeSection(&sb, "PAGE", p)
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, label string, p *entity.CrawledPage) {
	title := p.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(sb, "=== %s: %s (%s) ===\n", label, title, p.URL)
	sb.WriteString(p.TextContent)
}
