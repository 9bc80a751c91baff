package ai

import "strings"

// CleanBaseURL normalizes a user-pasted endpoint: surrounding whitespace and
// trailing slashes go, then a trailing /v1beta/models or /v1beta suffix is
// stripped so building the request path never duplicates it. The function is
// idempotent.
func CleanBaseURL(url string) string {
	c := strings.TrimSpace(url)
	if c == "" {
		return ""
	}
	for strings.HasSuffix(c, "/") {
		c = strings.TrimSuffix(c, "/")
	}
	if strings.HasSuffix(c, "/v1beta/models") {
		c = strings.TrimSuffix(c, "/v1beta/models")
	} else if strings.HasSuffix(c, "/v1beta") {
		c = strings.TrimSuffix(c, "/v1beta")
	}
	return c
}
