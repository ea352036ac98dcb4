package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/profile-extractor/internal/entity"
)

func TestAggregate_MainPageFirst(t *testing.T) {
	pages := []*entity.CrawledPage{
		{URL: "https://firm.test/about", Title: "About", TextContent: "We design houses.", Depth: 1},
		{URL: "https://firm.test/", Title: "Home", TextContent: "Studio Nord", Depth: 0},
		{URL: "https://firm.test/projects", Title: "Projects", TextContent: "Villa A", Depth: 1},
	}

	corpus := Aggregate(pages)

	assert.True(t, strings.HasPrefix(corpus, "=== MAIN PAGE: Home (https://firm.test/) ===\nStudio Nord"))
	about := strings.Index(corpus, "=== PAGE: About (https://firm.test/about) ===")
	projects := strings.Index(corpus, "=== PAGE: Projects (https://firm.test/projects) ===")
	assert.Greater(t, about, 0)
	assert.Greater(t, projects, about)
}

func TestAggregate_NoDepthZeroUsesFirstPage(t *testing.T) {
	pages := []*entity.CrawledPage{
		{URL: "https://firm.test/a", Title: "A", TextContent: "aaa", Depth: 1},
		{URL: "https://firm.test/b", Title: "", TextContent: "bbb", Depth: 1},
	}

	corpus := Aggregate(pages)

	assert.True(t, strings.HasPrefix(corpus, "=== MAIN PAGE: A (https://firm.test/a) ==="))
	assert.Contains(t, corpus, "=== PAGE: Untitled (https://firm.test/b) ===\nbbb")
}

func TestAggregate_KeepsEveryPage(t *testing.T) {
	long := strings.Repeat("x", 200_000)
	pages := []*entity.CrawledPage{
		{URL: "https://firm.test/", Title: "Home", TextContent: long},
		{URL: "https://firm.test/empty", Title: "Empty", Depth: 1},
	}

	corpus := Aggregate(pages)

	assert.Contains(t, corpus, long)
	assert.Contains(t, corpus, "=== PAGE: Empty (https://firm.test/empty) ===")
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
