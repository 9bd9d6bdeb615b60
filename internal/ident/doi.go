package ident

import (
	"strconv"
	"strings"
)

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// NormalizeDOI strips a "doi:" prefix or doi.org URL. Case is preserved.
func NormalizeDOI(identifier string) string {
	doi := strings.TrimSpace(identifier)
	lower := strings.ToLower(doi)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(doi[len(prefix):])
		}
	}
	return doi
}

// IsDOI reports whether doi has the form 10.NNNN[.N...]/suffix with a
// registrant code of at least 1000.
func IsDOI(doi string) bool {
	parts := strings.Split(strings.ToLower(doi), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	prefix := strings.Split(parts[0], ".")
	if len(prefix) < 2 {
		return false
	}
	for _, p := range prefix {
		if !isDigits(p) {
			return false
		}
	}
	if prefix[0] != "10" {
		return false
	}
	registrant, err := strconv.Atoi(prefix[1])
	if err != nil {
		return false
	}
	return registrant >= 1000
}
