package crawler

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultPlatforms returns the built-in allow-list of paste platforms.
// A new slice is returned on every call.
func DefaultPlatforms() []string {
	return []string{
		"pastebin.com",
		"pastespot.com",
		"cl1p.net",
		"dpaste.org",
		"slexy.org",
		"dumpz.org",
		"hastebin.com",
		"gist.github.com",
		"heypasteit.com",
		"ivpaste.com",
		"mysticpaste.com",
		"paste2.org",
	}
}

// platform is an allow-list entry with its registrable domain precomputed.
type platform struct {
	host   string
	domain string
}

// LinkFilter keeps URLs whose host is an allow-listed platform or one of
// its subdomains.
//
// gist.github.com admits gist.github.com but not github.com, and
// pastebin.com admits www.pastebin.com but not notpastebin.com.
type LinkFilter struct {
	platforms []platform
}

// NewLinkFilter creates a filter for the given platform hosts.
// Hosts are compared case-insensitively; blank entries are ignored.
func NewLinkFilter(platforms []string) *LinkFilter {
	f := &LinkFilter{
		platforms: make([]platform, 0, len(platforms)),
	}
	for _, p := range platforms {
		host := strings.ToLower(strings.TrimSpace(p))
		host = strings.TrimSuffix(host, ".")
		if host == "" {
			continue
		}
		f.platforms = append(f.platforms, platform{
			host:   host,
			domain: registrableDomain(host),
		})
	}
	return f
}

// Filter returns the allow-listed subset of links without duplicates.
// The result preserves first-seen order and is never nil.
func (f *LinkFilter) Filter(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	result := make([]string, 0, len(links))
	for _, link := range links {
		if _, dup := seen[link]; dup {
			continue
		}
		if !f.Allowed(link) {
			continue
		}
		seen[link] = struct{}{}
		result = append(result, link)
	}
	return result
}

// Allowed reports whether a single link passes the filter.
// Unparseable links and links without a host are rejected.
func (f *LinkFilter) Allowed(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return false
	}

	domain := registrableDomain(host)
	for _, p := range f.platforms {
		// Different registrable domains can never match.
		if domain != "" && p.domain != "" && domain != p.domain {
			continue
		}
		if host == p.host || strings.HasSuffix(host, "."+p.host) {
			return true
		}
	}
	return false
}

// FilterLinks filters links against the given platform allow-list.
func FilterLinks(links, platforms []string) []string {
	return NewLinkFilter(platforms).Filter(links)
}

// registrableDomain returns the eTLD+1 of host, or "" when it has none
// (IP addresses, single labels, bare public suffixes).
func registrableDomain(host string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domain
}
