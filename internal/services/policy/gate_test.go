package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidecraft/slidecraft/internal/common"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	config := common.NewDefaultConfig()
	return NewGate(config, common.GetLogger())
}

func TestRobotsURL(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"https://example.com/page/one", "https://example.com/robots.txt", false},
		{"http://example.com", "http://example.com/robots.txt", false},
		{"https://example.com:8443/deep/path?q=1", "https://example.com:8443/robots.txt", false},
		{"ftp://example.com/file", "", true},
		{"not a url", "", true},
		{"/relative/path", "", true},
	}

	for _, tt := range tests {
		got, err := RobotsURL(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestCheckAllowsWhenRobotsMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	gate := newTestGate(t)
	decision := gate.Check(context.Background(), server.URL+"/article")

	assert.True(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "No robots.txt")
}

func TestCheckFailsClosedOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gate := newTestGate(t)
	decision := gate.Check(context.Background(), server.URL+"/article")

	assert.False(t, decision.Allowed)
}

func TestCheckFailsClosedOnUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	gate := newTestGate(t)
	decision := gate.Check(context.Background(), url+"/article")

	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "Could not access robots.txt")
}

func TestCheckDisallowedPath(t *testing.T) {
	robots := "User-agent: *\nDisallow: /private/\nAllow: /private/public/\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte(robots))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	gate := newTestGate(t)

	blocked := gate.Check(context.Background(), server.URL+"/private/page")
	assert.False(t, blocked.Allowed)

	allowed := gate.Check(context.Background(), server.URL+"/private/public/page")
	assert.True(t, allowed.Allowed)

	open := gate.Check(context.Background(), server.URL+"/docs")
	assert.True(t, open.Allowed)
}

func TestFetchRawReturnsRobotsBody(t *testing.T) {
	robots := "User-agent: *\nDisallow: /admin/\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte(robots))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	gate := newTestGate(t)
	content, err := gate.FetchRaw(context.Background(), server.URL+"/some/page")

	require.NoError(t, err)
	assert.Equal(t, robots, content)
}

func TestFetchRawErrorsWhenMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	gate := newTestGate(t)
	_, err := gate.FetchRaw(context.Background(), server.URL+"/some/page")

	assert.Error(t, err)
}

func TestParseRobotsLongestMatch(t *testing.T) {
	tests := []struct {
		name    string
		robots  string
		path    string
		allowed bool
	}{
		{
			name:    "longer allow wins",
			robots:  "User-agent: *\nDisallow: /a/\nAllow: /a/b/",
			path:    "/a/b/c",
			allowed: true,
		},
		{
			name:    "longer disallow wins",
			robots:  "User-agent: *\nAllow: /a/\nDisallow: /a/b/",
			path:    "/a/b/c",
			allowed: false,
		},
		{
			name:    "allow wins tie",
			robots:  "User-agent: *\nDisallow: /ab\nAllow: /ab",
			path:    "/about",
			allowed: true,
		},
		{
			name:    "empty disallow allows all",
			robots:  "User-agent: *\nDisallow:",
			path:    "/anything",
			allowed: true,
		},
		{
			name:    "no matching rule allows",
			robots:  "User-agent: *\nDisallow: /admin/",
			path:    "/blog",
			allowed: true,
		},
		{
			name:    "wildcard pattern",
			robots:  "User-agent: *\nDisallow: /*/print",
			path:    "/article/print",
			allowed: false,
		},
		{
			name:    "end anchor",
			robots:  "User-agent: *\nDisallow: /*.pdf$",
			path:    "/files/report.pdf",
			allowed: false,
		},
		{
			name:    "end anchor no match",
			robots:  "User-agent: *\nDisallow: /*.pdf$",
			path:    "/files/report.pdf.html",
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := parseRobots(tt.robots, "Mozilla/5.0 (test)")
			assert.Equal(t, tt.allowed, rules.allows(tt.path))
		})
	}
}

func TestParseRobotsSpecificAgentGroup(t *testing.T) {
	robots := "User-agent: mozilla\nDisallow: /blocked/\n\nUser-agent: *\nDisallow: /\n"

	rules := parseRobots(robots, "Mozilla/5.0 (test)")

	// The specific group applies, the catch-all disallow does not
	assert.False(t, rules.allows("/blocked/page"))
	assert.True(t, rules.allows("/open/page"))
}

func TestParseRobotsStackedAgents(t *testing.T) {
	robots := "User-agent: a\nUser-agent: *\nDisallow: /x/\n"

	rules := parseRobots(robots, "Mozilla/5.0")
	assert.False(t, rules.allows("/x/page"))
	assert.True(t, rules.allows("/y/page"))
}
