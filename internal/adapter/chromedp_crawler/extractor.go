package chromedp_crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/pkg/utils"
)

// noiseSelector matches elements whose text never belongs to the page content.
const noiseSelector = "script, style, noscript, template, nav, footer, header, iframe, svg, form"

// mainSelectors match semantic main-content regions, best first.
var mainSelectors = []string{"main", "[role=main]", "article", "#content", ".content"}

// blockAtoms end a line of extracted text.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true, atom.Aside: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Tr: true, atom.Table: true, atom.Br: true, atom.Blockquote: true, atom.Figcaption: true,
	atom.Address: true, atom.Main: true,
}

// ExtractContent parses the rendered markup of pageURL. Links and images are
// collected from the whole document before noise elements are stripped for
// text extraction.
func ExtractContent(pageURL, rawHTML string) (*entity.CrawledPage, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	page := &entity.CrawledPage{
		URL:   pageURL,
		Title: collapseSpaces(doc.Find("title").First().Text()),
	}
	if page.Title == "" {
		page.Title = collapseSpaces(doc.Find("h1").First().Text())
	}

	page.Links = collectURLs(doc, base, "a[href]", "href", func(abs *url.URL) bool {
		return abs.Scheme == "http" || abs.Scheme == "https"
	})
	page.Images = collectURLs(doc, base, "img[src]", "src", func(abs *url.URL) bool {
		return abs.Scheme == "http" || abs.Scheme == "https"
	})

	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	if description == "" {
		description, _ = doc.Find(`meta[property="og:description"]`).Attr("content")
	}

	doc.Find(noiseSelector).Remove()

	content := doc.Find("body")
	for _, sel := range mainSelectors {
		if region := doc.Find(sel).First(); region.Length() > 0 && strings.TrimSpace(region.Text()) != "" {
			content = region
			break
		}
	}

	text := visibleText(content)
	if description = collapseSpaces(description); description != "" && !strings.Contains(text, description) {
		text = strings.TrimSpace(description + "\n" + text)
	}
	page.TextContent = text
	return page, nil
}

func collectURLs(doc *goquery.Document, base *url.URL, selector, attr string, keep func(*url.URL) bool) []string {
	seen := make(map[string]struct{})
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		raw, _ := s.Attr(attr)
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") {
			return
		}
		abs, err := utils.ToAbsoluteURL(base, raw)
		if err != nil {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || !keep(u) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	})
	return out
}

// visibleText renders the text of sel with one line per block element and
// whitespace collapsed inside lines.
func visibleText(sel *goquery.Selection) string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := collapseSpaces(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			current.WriteByte(' ')
			return
		case html.ElementNode:
			if blockAtoms[n.DataAtom] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	flush()
	return strings.Join(lines, "\n")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
