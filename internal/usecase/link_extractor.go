package usecase

import (
	"net/url"
	"path"
	"strings"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/pkg/utils"
)

// deniedSegments are path segments that mark non-content pages.
var deniedSegments = map[string]struct{}{
	"admin": {}, "wp-admin": {}, "administrator": {}, "wp-login.php": {}, "wp-json": {},
	"login": {}, "logout": {}, "signin": {}, "sign-in": {}, "signup": {}, "register": {},
	"account": {}, "my-account": {}, "cart": {}, "basket": {}, "checkout": {},
	"search": {}, "tag": {}, "tags": {}, "category": {}, "categories": {}, "author": {},
	"feed": {}, "rss": {}, "xmlrpc.php": {}, "cdn-cgi": {},
}

// deniedExtensions are document types that are never HTML pages.
var deniedExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".zip": {}, ".rar": {}, ".7z": {}, ".tar": {}, ".gz": {}, ".dwg": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {}, ".webp": {}, ".bmp": {}, ".ico": {}, ".tif": {}, ".tiff": {},
	".mp3": {}, ".mp4": {}, ".mov": {}, ".avi": {}, ".wmv": {}, ".webm": {},
	".css": {}, ".js": {}, ".json": {}, ".xml": {}, ".rss": {}, ".txt": {},
}

// LinkExtractor selects the same-site content links of a crawled page.
type LinkExtractor struct{}

// NewLinkExtractor creates a link extractor with the built-in denylists.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// Extract returns the navigable links of page that stay on seedURL's host,
// in document order, without duplicates (by canonical form).
func (le *LinkExtractor) Extract(page *entity.CrawledPage, seedURL string) []string {
	seen := make(map[string]struct{}, len(page.Links))
	links := make([]string, 0, len(page.Links))

	for _, link := range page.Links {
		if !le.Allowed(link, seedURL) {
			continue
		}
		canonical, err := utils.CanonicalURL(link)
		if err != nil {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		links = append(links, stripFragment(link))
	}
	return links
}

// Allowed reports whether link may be enqueued for a crawl seeded at seedURL.
func (le *LinkExtractor) Allowed(link, seedURL string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	// mailto:, tel:, javascript: and friends all fail here.
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !utils.SameHost(link, seedURL) {
		return false
	}

	p := strings.ToLower(u.Path)
	if _, denied := deniedExtensions[path.Ext(p)]; denied {
		return false
	}
	for _, segment := range strings.Split(p, "/") {
		if _, denied := deniedSegments[segment]; denied {
			return false
		}
	}
	// WordPress search results live on the root with ?s=.
	if u.Query().Has("s") {
		return false
	}
	return true
}

func stripFragment(link string) string {
	if i := strings.IndexByte(link, '#'); i >= 0 {
		return link[:i]
	}
	return link
}
