package fetch

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

var spaShells = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
}

// NeedsBrowser uses heuristics to decide if HTTP-fetched HTML likely needs
// JS rendering before its links are trustworthy (SPA shell, noscript
// warnings, script-heavy page with almost no visible text).
func NeedsBrowser(body []byte) bool {
	bodyText := extractVisibleText(body)

	// Very little visible text in <body> → likely SPA shell.
	if len(bodyText) < 200 {
		return true
	}

	lower := strings.ToLower(string(body))

	// Empty SPA root containers.
	for _, shell := range spaShells {
		if strings.Contains(lower, shell) {
			return true
		}
	}

	// <noscript> with JS-required warnings.
	if reNoscript.MatchString(lower) {
		return true
	}

	// Many <script> tags + little body text → JS-heavy page.
	if strings.Count(lower, "<script") > 10 && len(bodyText) < 500 {
		return true
	}

	return false
}

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content. Used for heuristic analysis only.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
