// Package reputation looks links up in Google Safe Browsing.
package reputation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	safebrowsing "google.golang.org/api/safebrowsing/v4"
)

const clientID = "cyberguard"

// maxURLs is the most links sent in one lookup.
const maxURLs = 20

var (
	threatTypes = []string{
		"MALWARE",
		"SOCIAL_ENGINEERING",
		"UNWANTED_SOFTWARE",
		"POTENTIALLY_HARMFUL_APPLICATION",
	}
	urlPattern  = regexp.MustCompile(`(?i)\bhttps?://[^\s"'<>]+`)
	hostPattern = regexp.MustCompile(`(?i)^[a-z0-9-]+(\.[a-z0-9-]+)+(/\S*)?$`)
)

// Match is one listed link.
type Match struct {
	URL        string `json:"url"`
	ThreatType string `json:"threat_type"`
}

// SafeBrowsing checks links with the v4 Lookup API.
type SafeBrowsing struct {
	svc     *safebrowsing.Service
	version string
}

// New creates a checker authenticated with apiKey. Extra options are applied
// after the key.
func New(ctx context.Context, apiKey, version string, opts ...option.ClientOption) (*SafeBrowsing, error) {
	svc, err := safebrowsing.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to init safe browsing client: %w", err)
	}
	return &SafeBrowsing{svc: svc, version: version}, nil
}

// Check looks up every link found in text. Text with no links makes no call.
func (s *SafeBrowsing) Check(ctx context.Context, text string) ([]Match, error) {
	urls := ExtractURLs(text)
	if len(urls) == 0 {
		return nil, nil
	}

	entries := make([]*safebrowsing.GoogleSecuritySafebrowsingV4ThreatEntry, 0, len(urls))
	for _, u := range urls {
		entries = append(entries, &safebrowsing.GoogleSecuritySafebrowsingV4ThreatEntry{Url: u})
	}
	req := &safebrowsing.GoogleSecuritySafebrowsingV4FindThreatMatchesRequest{
		Client: &safebrowsing.GoogleSecuritySafebrowsingV4ClientInfo{
			ClientId:      clientID,
			ClientVersion: s.version,
		},
		ThreatInfo: &safebrowsing.GoogleSecuritySafebrowsingV4ThreatInfo{
			ThreatTypes:      threatTypes,
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    entries,
		},
	}

	resp, err := s.svc.ThreatMatches.Find(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("safe browsing lookup: %w", err)
	}

	var out []Match
	for _, m := range resp.Matches {
		if m == nil || m.Threat == nil {
			continue
		}
		out = append(out, Match{URL: m.Threat.Url, ThreatType: m.ThreatType})
	}
	return out, nil
}

// ExtractURLs returns the distinct http(s) links in text. A bare host such
// as "example.com/login" typed on its own counts as one link.
func ExtractURLs(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		u = strings.TrimRight(u, ".,;:!?)]}")
		if u == "" || seen[u] || len(out) >= maxURLs {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	for _, u := range urlPattern.FindAllString(text, -1) {
		add(u)
	}
	if len(out) == 0 {
		if t := strings.TrimSpace(text); hostPattern.MatchString(t) {
			add("http://" + t)
		}
	}
	return out
}
