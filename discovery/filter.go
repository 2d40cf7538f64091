package discovery

import "strings"

// Paths that are almost never schema-worthy content: administrative,
// authentication, and commerce-flow pages.
var denyPathParts = []string{
	"/wp-admin/",
	"/admin/",
	"/login",
	"/signin",
	"/signup",
	"/logout",
	"/cart",
	"/checkout",
	"/account",
	"/dashboard",
}

// Static-asset extensions that cannot carry page content.
var denyExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".css", ".js", ".xml", ".json",
}

// IsContentPath reports whether a URL path is likely to carry indexable page
// content. The frontier crawler only enqueues links that pass this filter.
func IsContentPath(path string) bool {
	lower := strings.ToLower(path)

	for _, part := range denyPathParts {
		if strings.Contains(lower, part) {
			return false
		}
	}
	for _, ext := range denyExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}

// pathDepth counts the non-empty path segments of a URL path. This is a
// structural property of the URL itself, not the BFS hop distance from the
// seed: a deep-path URL one hop from the root is still treated as deep.
func pathDepth(path string) int {
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}
