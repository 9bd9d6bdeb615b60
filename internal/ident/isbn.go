package ident

import (
	"strconv"
	"strings"
)

// NormalizeISBN strips hyphens and spaces.
func NormalizeISBN(identifier string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(identifier))
}

// IsISBN reports whether a normalized ISBN has 10 or 13 digits and passes
// the 1-3 weighted checksum. A 10-digit ISBN is checksummed with a "978"
// prefix.
func IsISBN(isbn string) bool {
	if !isDigits(isbn) {
		return false
	}
	switch len(isbn) {
	case 10:
		isbn = "978" + isbn
	case 13:
	default:
		return false
	}
	return isbnChecksum(isbn)%10 == 0
}

func isbnChecksum(digits string) int {
	sum := 0
	for i, r := range digits {
		d := int(r - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}
	return sum
}

// ISBN13 returns the ISBN-13 form of a normalized 10-digit ISBN by adding the
// 978 prefix and recomputing the check digit. Other inputs are returned
// unchanged.
func ISBN13(isbn string) string {
	if len(isbn) != 10 || !isDigits(isbn[:9]) {
		return isbn
	}
	body := "978" + isbn[:9]
	check := (10 - isbnChecksum(body)%10) % 10
	return body + strconv.Itoa(check)
}

// ISBN10 returns the ISBN-10 form of a normalized 978-prefixed ISBN-13, with
// the mod-11 check digit. Other inputs are returned unchanged.
func ISBN10(isbn string) string {
	if len(isbn) != 13 || !strings.HasPrefix(isbn, "978") || !isDigits(isbn[3:12]) {
		return isbn
	}
	body := isbn[3:12]
	sum := 0
	for i, r := range body {
		sum += (10 - i) * int(r-'0')
	}
	switch check := (11 - sum%11) % 11; check {
	case 10:
		return body + "X"
	default:
		return body + strconv.Itoa(check)
	}
}

// ISBNForms returns the distinct stored forms a normalized ISBN may take:
// the input, its ISBN-13 form, and for 978-prefixed ISBNs both the ISBN-10
// and the ISBN-13 with the prefix dropped.
func ISBNForms(isbn string) []string {
	isbn13 := ISBN13(isbn)
	candidates := []string{isbn, isbn13}
	if len(isbn13) == 13 && strings.HasPrefix(isbn13, "978") {
		candidates = append(candidates, ISBN10(isbn13), isbn13[3:])
	}

	var forms []string
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			forms = append(forms, c)
		}
	}
	return forms
}
