package policy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/httpclient"
	"github.com/slidecraft/slidecraft/internal/interfaces"
)

// maxRobotsSize caps how much of a robots.txt file is read
const maxRobotsSize = 512 * 1024

// Gate checks robots.txt before any page is scraped.
// The gate fails closed: if robots.txt cannot be fetched or parsed for any
// reason other than a 404, scraping is disallowed.
type Gate struct {
	client    *http.Client
	userAgent string
	logger    arbor.ILogger
}

// NewGate creates a policy gate using the scraper's HTTP settings
func NewGate(config *common.Config, logger arbor.ILogger) *Gate {
	return &Gate{
		client:    httpclient.NewHTTPClientWithUserAgent(config.Scraper.RequestTimeout, config.Scraper.UserAgent),
		userAgent: config.Scraper.UserAgent,
		logger:    logger,
	}
}

// RobotsURL constructs the robots.txt URL for a target page URL
func RobotsURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url has no host")
	}
	return fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host), nil
}

// Check decides whether the URL may be scraped
func (g *Gate) Check(ctx context.Context, rawURL string) interfaces.PolicyDecision {
	decision := interfaces.PolicyDecision{URL: rawURL}

	robotsURL, err := RobotsURL(rawURL)
	if err != nil {
		decision.Reason = fmt.Sprintf("Invalid URL: %v", err)
		return decision
	}

	g.logger.Debug().Str("robots_url", robotsURL).Msg("Checking robots.txt")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		decision.Reason = fmt.Sprintf("Could not build robots.txt request: %v", err)
		return decision
	}

	resp, err := g.client.Do(req)
	if err != nil {
		// Fail closed on transport errors
		decision.Reason = fmt.Sprintf("Could not access robots.txt: %v", err)
		return decision
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No robots.txt means no restrictions
		decision.Allowed = true
		decision.Reason = "No robots.txt found, scraping is allowed"
		return decision
	case resp.StatusCode != http.StatusOK:
		decision.Reason = fmt.Sprintf("robots.txt returned status %d", resp.StatusCode)
		return decision
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		decision.Reason = fmt.Sprintf("Could not read robots.txt: %v", err)
		return decision
	}

	rules := parseRobots(string(body), g.userAgent)
	path := targetPath(rawURL)

	if rules.allows(path) {
		decision.Allowed = true
		decision.Reason = "Scraping is allowed by robots.txt"
	} else {
		decision.Reason = "Scraping is disallowed by robots.txt"
	}
	return decision
}

// FetchRaw returns the raw robots.txt content for a target URL
func (g *Gate) FetchRaw(ctx context.Context, rawURL string) (string, error) {
	robotsURL, err := RobotsURL(rawURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("robots.txt returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return "", fmt.Errorf("failed to read robots.txt: %w", err)
	}
	return string(body), nil
}

func targetPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return "/"
	}
	path := parsed.Path
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	return path
}

// robotRule is a single Allow or Disallow line
type robotRule struct {
	path  string
	allow bool
}

// robotRules holds the rules from the group matching our user agent
type robotRules struct {
	rules []robotRule
}

// allows applies longest-match semantics: the most specific matching rule
// wins, and an Allow beats a Disallow of equal length. No match means allowed.
func (r robotRules) allows(path string) bool {
	var best *robotRule
	bestLen := -1
	for i := range r.rules {
		rule := &r.rules[i]
		if rule.path == "" {
			continue
		}
		if !ruleMatches(rule.path, path) {
			continue
		}
		l := len(rule.path)
		if l > bestLen || (l == bestLen && rule.allow && best != nil && !best.allow) {
			best = rule
			bestLen = l
		}
	}
	if best == nil {
		return true
	}
	return best.allow
}

// ruleMatches checks a robots path pattern against a request path.
// Supports the * wildcard and $ end anchor.
func ruleMatches(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = strings.TrimSuffix(pattern, "$")
	}

	parts := strings.Split(pattern, "*")
	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			if !strings.HasPrefix(path, part) {
				return false
			}
			pos = len(part)
			continue
		}
		idx := strings.Index(path[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}

	if anchored {
		// The last literal part must end the path
		if strings.HasSuffix(pattern, "*") {
			return true
		}
		return pos == len(path)
	}
	return true
}

// parseRobots extracts the rule group that applies to the given user agent.
// A group naming our agent (substring match, case-insensitive) takes priority
// over the wildcard group.
func parseRobots(content, userAgent string) robotRules {
	agentToken := strings.ToLower(productToken(userAgent))

	var specific, wildcard robotRules
	var currentAgents []string
	inGroup := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if inGroup {
				// A new group starts after rule lines
				currentAgents = nil
				inGroup = false
			}
			currentAgents = append(currentAgents, strings.ToLower(value))
		case "allow", "disallow":
			inGroup = true
			rule := robotRule{path: value, allow: key == "allow"}
			for _, agent := range currentAgents {
				if agent == "*" {
					wildcard.rules = append(wildcard.rules, rule)
				} else if agentToken != "" && strings.Contains(agentToken, agent) {
					specific.rules = append(specific.rules, rule)
				}
			}
		}
	}

	if len(specific.rules) > 0 {
		return specific
	}
	return wildcard
}

// productToken reduces a full user agent string to its leading product name
func productToken(userAgent string) string {
	token := userAgent
	if idx := strings.IndexAny(token, "/ "); idx >= 0 {
		token = token[:idx]
	}
	return token
}
