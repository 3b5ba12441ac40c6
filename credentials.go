package main

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	tokenQueryParam = "token"
	tokenHeader     = "X-GitHub-Token"
)

// resolveToken picks the credential for a request. Precedence: the `token`
// query parameter, then the X-GitHub-Token header, then the server-default
// token. Returns false when none of the three is present.
func resolveToken(query url.Values, header http.Header, defaultToken string) (string, bool) {
	if token := strings.TrimSpace(query.Get(tokenQueryParam)); token != "" {
		return token, true
	}
	if token := strings.TrimSpace(header.Get(tokenHeader)); token != "" {
		return token, true
	}
	if token := strings.TrimSpace(defaultToken); token != "" {
		return token, true
	}
	return "", false
}
