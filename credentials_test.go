package main

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTokenPrecedence(t *testing.T) {
	tests := []struct {
		name         string
		query        url.Values
		header       http.Header
		defaultToken string
		wantToken    string
		wantOK       bool
	}{
		{
			name:      "query wins over header and default",
			query:     url.Values{"token": {"from-query"}},
			header:    http.Header{"X-Github-Token": {"from-header"}},
			wantToken: "from-query",
			wantOK:    true,
		},
		{
			name:         "header wins over default",
			query:        url.Values{},
			header:       http.Header{"X-Github-Token": {"from-header"}},
			defaultToken: "from-env",
			wantToken:    "from-header",
			wantOK:       true,
		},
		{
			name:         "default used when request carries nothing",
			query:        url.Values{},
			header:       http.Header{},
			defaultToken: "from-env",
			wantToken:    "from-env",
			wantOK:       true,
		},
		{
			name:   "all absent",
			query:  url.Values{},
			header: http.Header{},
			wantOK: false,
		},
		{
			name:         "whitespace-only values are absent",
			query:        url.Values{"token": {"   "}},
			header:       http.Header{"X-Github-Token": {"\t"}},
			defaultToken: " ",
			wantOK:       false,
		},
		{
			name:      "query value is trimmed",
			query:     url.Values{"token": {"  padded  "}},
			header:    http.Header{},
			wantToken: "padded",
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := resolveToken(tt.query, tt.header, tt.defaultToken)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestResolveTokenHeaderNameIsCanonical(t *testing.T) {
	header := http.Header{}
	header.Set("x-github-token", "lower-cased")
	token, ok := resolveToken(url.Values{}, header, "")
	assert.True(t, ok)
	assert.Equal(t, "lower-cased", token)
}
