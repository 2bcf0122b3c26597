// Package goquery_extractor implements repository.LinkExtractor with goquery.
package goquery_extractor

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/site-crawler/pkg/utils"
)

var staticFile = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|bmp|webp|svg|pdf|docx?|xlsx?|pptx?|zip|rar|tar|gz|mp3|mp4|avi|mov|mkv)$`)

// LinkExtractor pulls anchor targets out of HTML.
type LinkExtractor struct{}

// NewLinkExtractor creates a LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// Extract returns the distinct absolute http/https links of every a[href] in
// content, resolved against base. Static file links are dropped.
func (e *LinkExtractor) Extract(content string, base *url.URL) ([]*url.URL, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	// A <base href> in the document overrides the request URL for resolution.
	resolveAgainst := base
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := utils.Resolve(base, strings.TrimSpace(href)); err == nil {
			resolveAgainst = u
		}
	}

	seen := make(map[string]struct{})
	var links []*url.URL
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		u, err := utils.Resolve(resolveAgainst, href)
		if err != nil {
			slog.Debug("Ignoring malformed link", "href", href, "error", err)
			return
		}
		if !isWeb(u) || isStaticFile(u) {
			return
		}
		key := u.String()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		links = append(links, u)
	})
	return links, nil
}

func isWeb(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

func isStaticFile(u *url.URL) bool {
	return staticFile.MatchString(u.Path)
}
