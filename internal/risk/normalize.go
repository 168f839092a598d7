package risk

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"
)

// NormalizeIPExact canonicalizes an IPv4/IPv6 address to a stable string
// usable as an exact cache key: IPv4 in dotted form, IPv6 as 8 colon-joined
// 4-hex-digit groups. Returns "" for absent or unparseable input.
func NormalizeIPExact(ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ""
	}
	addr = addr.Unmap()
	if addr.Is4() {
		return addr.String()
	}
	return addr.StringExpanded()
}

// NormalizeIPBucket coarsens an address for similarity comparison:
// IPv4 becomes the first three octets plus ".*", IPv6 the first four
// expanded groups plus ":*". Returns "" for invalid input.
func NormalizeIPBucket(ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ""
	}
	addr = addr.Unmap()
	if addr.Is4() {
		o := addr.As4()
		return fmt.Sprintf("%d.%d.%d.*", o[0], o[1], o[2])
	}
	groups := strings.Split(addr.StringExpanded(), ":")
	return strings.Join(groups[:4], ":") + ":*"
}

// Browser engine patterns, ordered so that derivative engines win over the
// engines they embed (Edge and Opera UAs also contain "Chrome", Chrome UAs
// contain "Safari").
var uaEnginePatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Edge", regexp.MustCompile(`(?i)\b(?:Edg|Edge)/(\d+)`)},
	{"Opera", regexp.MustCompile(`(?i)\b(?:OPR|Opera)/(\d+)`)},
	{"Brave", regexp.MustCompile(`(?i)\bBrave/(\d+)`)},
	{"Firefox", regexp.MustCompile(`(?i)\bFirefox/(\d+)`)},
	{"Chrome", regexp.MustCompile(`(?i)\bChrome/(\d+)`)},
	{"Safari", regexp.MustCompile(`(?i)\bSafari/(\d+)`)},
}

var uaTokenPattern = regexp.MustCompile(`([A-Za-z][A-Za-z0-9._-]*)/([0-9][0-9A-Za-z.]*)`)

// UserAgentCore extracts a "Name/MajorVersion" token from a raw user-agent
// string for a known browser engine, falling back to the first token/value
// pair (version stripped of non-digit suffixes), then to the first 40
// characters of the raw string. Returns "" for empty input.
func UserAgentCore(userAgent string) string {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return ""
	}

	for _, p := range uaEnginePatterns {
		if m := p.re.FindStringSubmatch(ua); m != nil {
			return p.name + "/" + m[1]
		}
	}

	if m := uaTokenPattern.FindStringSubmatch(ua); m != nil {
		version := strings.TrimRight(m[2], "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ.-_")
		return m[1] + "/" + version
	}

	runes := []rune(ua)
	if len(runes) > 40 {
		return string(runes[:40])
	}
	return ua
}

// RegionKeys splits a free-text region string on "|", "-", "," and "/" and
// returns a coarse comparison key (first two parts joined by "/") and a more
// detailed display key (first three parts). Single-part input is returned
// verbatim as both keys.
func RegionKeys(region string) (compareKey, displayKey string) {
	raw := strings.FieldsFunc(region, func(r rune) bool {
		return r == '|' || r == '-' || r == ',' || r == '/'
	})

	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	case 2:
		key := parts[0] + "/" + parts[1]
		return key, key
	default:
		return strings.Join(parts[:2], "/"), strings.Join(parts[:3], "/")
	}
}
