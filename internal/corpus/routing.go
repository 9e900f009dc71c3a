package corpus

import (
	"strings"

	"leadcheck/internal/email"
)

// The corpus partitions leaked addresses across named collections. High
// volume providers get their own collection families routed by the local
// part of the address; everything else is routed by the first two letters
// of the domain. Collection names are part of the corpus schema and must
// not change.

var specialDomainPrefixes = map[string]string{
	"gmail.com":   "GC",
	"hotmail.com": "HC",
	"hotmail.fr":  "HF",
	"mail.ru":     "MR",
	"yahoo.com":   "YC",
	"aol.com":     "AC",
	"yahoo.fr":    "YF",
	"comcast.net": "CN",
}

// Target identifies the collection an address routes to within a shard.
type Target struct {
	Collection string
}

// NormalizeDomain lowercases a domain and strips protocol, path, query,
// port and trailing dots. Leaked datasets contain domains scraped in all
// of these forms.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?"); i >= 0 {
		d = d[:i]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	return strings.Trim(d, ".")
}

// Route maps a normalized address to its corpus collection. The second
// return is false when the address cannot be routed (no usable domain),
// in which case it cannot appear in the corpus at all.
func Route(normalized string) (Target, bool) {
	local, domain, ok := email.SplitAddress(normalized)
	if !ok {
		return Target{}, false
	}
	domain = NormalizeDomain(domain)
	if domain == "" {
		return Target{}, false
	}

	if prefix, ok := specialDomainPrefixes[domain]; ok {
		return Target{Collection: routeByLocalPart(local, prefix)}, true
	}

	first := domain[0]
	if isLower(first) {
		return Target{Collection: routeByDomain(domain)}, true
	}
	if first >= '0' && first <= '9' {
		switch {
		case first <= '3':
			return Target{Collection: "Email_Extra1"}, true
		case first <= '6':
			return Target{Collection: "Email_Extra2"}, true
		default:
			return Target{Collection: "Email_Extra3"}, true
		}
	}
	return Target{Collection: "Email_Extra_extra"}, true
}

// routeByLocalPart buckets special-provider addresses by the first letter
// of the username.
func routeByLocalPart(local, prefix string) string {
	if local == "" || !isLower(local[0]) {
		return "Email_" + prefix + "v_" + prefix + "z_extra"
	}
	return "Email_" + prefix + bucketLetters(local[0]) + "_" + prefix + bucketSuffix(local[0])
}

// routeByDomain buckets ordinary domains by first letter (upper-cased in
// the collection name) and second letter range.
func routeByDomain(domain string) string {
	upper := strings.ToUpper(string(domain[0]))
	var second byte
	if len(domain) > 1 {
		second = domain[1]
	}
	if !isLower(second) {
		return "Email_" + upper + "v_" + upper + "z_extra"
	}
	return "Email_" + upper + bucketLetters(second) + "_" + upper + bucketSuffix(second)
}

func isLower(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// bucketLetters and bucketSuffix produce the a_g / h_n / o_u / v_z_extra
// range pairs used throughout the collection naming scheme.
func bucketLetters(b byte) string {
	switch {
	case b <= 'g':
		return "a"
	case b <= 'n':
		return "h"
	case b <= 'u':
		return "o"
	default:
		return "v"
	}
}

func bucketSuffix(b byte) string {
	switch {
	case b <= 'g':
		return "g"
	case b <= 'n':
		return "n"
	case b <= 'u':
		return "u"
	default:
		return "z_extra"
	}
}
