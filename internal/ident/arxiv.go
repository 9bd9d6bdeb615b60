package ident

import (
	"regexp"
	"strconv"
	"strings"
)

var arxivURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?arxiv\.org/`)

// NormalizeArxiv lower-cases an arXiv identifier and strips an "arxiv:"
// prefix or an abs/pdf URL around it.
func NormalizeArxiv(identifier string) string {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if strings.HasPrefix(id, "arxiv:") {
		return id[len("arxiv:"):]
	}

	loc := arxivURLPattern.FindStringIndex(id)
	if loc == nil {
		return id
	}
	rest := id[loc[1]:]
	switch {
	case strings.HasPrefix(rest, "abs/"):
		return strings.TrimRight(rest[len("abs/"):], "/")
	case strings.HasPrefix(rest, "pdf/"):
		return strings.TrimSuffix(rest[len("pdf/"):], ".pdf")
	}
	return id
}

// IsArxiv reports whether a normalized identifier is an old-style
// (subject/YYMMNNN) or new-style (YYMM.NNNN[N]) arXiv ID.
func IsArxiv(id string) bool {
	return isOldStyleArxiv(id) || isNewStyleArxiv(id)
}

func isOldStyleArxiv(id string) bool {
	if strings.Count(id, "/") != 1 {
		return false
	}
	subject, number, _ := strings.Cut(id, "/")
	if subject == "" || len(number) != 7 || !isDigits(number) {
		return false
	}
	return validMonth(number[2:4])
}

func isNewStyleArxiv(id string) bool {
	if len(id) < 9 || len(id) > 10 || strings.Count(id, ".") != 1 {
		return false
	}
	date, number, _ := strings.Cut(id, ".")
	if len(date) != 4 || !isDigits(date) || !isDigits(number) {
		return false
	}
	return validMonth(date[2:4])
}

func validMonth(mm string) bool {
	m, err := strconv.Atoi(mm)
	if err != nil {
		return false
	}
	return m >= 1 && m <= 12
}
