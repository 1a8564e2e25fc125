package search

import (
	"net/url"
	"strings"
)

// domainTiers maps known publisher domains to a credibility tier.
// Unrecognized domains default to low. The table is intentionally
// coarse: it only has to order sources, not judge them.
var domainTiers = map[string]Credibility{
	// wire services and public broadcasters
	"reuters.com":    CredibilityVeryHigh,
	"apnews.com":     CredibilityVeryHigh,
	"bbc.com":        CredibilityVeryHigh,
	"bbc.co.uk":      CredibilityVeryHigh,
	"npr.org":        CredibilityVeryHigh,
	"nature.com":     CredibilityVeryHigh,
	"science.org":    CredibilityVeryHigh,
	"who.int":        CredibilityVeryHigh,
	"nasa.gov":       CredibilityVeryHigh,
	"snopes.com":     CredibilityVeryHigh,
	"politifact.com": CredibilityVeryHigh,
	"factcheck.org":  CredibilityVeryHigh,
	"fullfact.org":   CredibilityVeryHigh,

	// major outlets
	"nytimes.com":            CredibilityHigh,
	"washingtonpost.com":     CredibilityHigh,
	"wsj.com":                CredibilityHigh,
	"theguardian.com":        CredibilityHigh,
	"economist.com":          CredibilityHigh,
	"ft.com":                 CredibilityHigh,
	"bloomberg.com":          CredibilityHigh,
	"aljazeera.com":          CredibilityHigh,
	"cnn.com":                CredibilityHigh,
	"nbcnews.com":            CredibilityHigh,
	"abcnews.go.com":         CredibilityHigh,
	"cbsnews.com":            CredibilityHigh,
	"time.com":               CredibilityHigh,
	"nationalgeographic.com": CredibilityHigh,
	"scientificamerican.com": CredibilityHigh,
	"britannica.com":         CredibilityHigh,

	// broadly useful but uneven
	"wikipedia.org":       CredibilityMedium,
	"forbes.com":          CredibilityMedium,
	"businessinsider.com": CredibilityMedium,
	"huffpost.com":        CredibilityMedium,
	"nypost.com":          CredibilityMedium,
	"foxnews.com":         CredibilityMedium,
	"dailymail.co.uk":     CredibilityMedium,
	"medium.com":          CredibilityMedium,
}

// CredibilityForURL returns the tier for a source URL from the static
// domain table, defaulting to low for unrecognized or unparseable hosts.
func CredibilityForURL(raw string) Credibility {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return CredibilityLow
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if tier, ok := domainTiers[host]; ok {
		return tier
	}
	// Match registered domain for subdomain hosts like edition.cnn.com.
	parts := strings.Split(host, ".")
	for i := 1; i < len(parts)-1; i++ {
		if tier, ok := domainTiers[strings.Join(parts[i:], ".")]; ok {
			return tier
		}
	}
	return CredibilityLow
}
