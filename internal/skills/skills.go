// Package skills extracts canonical technology terms from free text.
package skills

import (
	"regexp"
	"sort"
	"strings"
)

// Vocabulary is the curated set of technology terms the extractor knows.
// Matching is case-insensitive; the canonical spelling below is what gets
// reported.
var Vocabulary = []string{
	"Python", "JavaScript", "TypeScript", "React", "Angular", "Vue",
	"Node.js", "Django", "Flask", "Express", "Ruby", "Rails", "PHP",
	"Java", "Spring", "C#", ".NET", "Go", "Rust", "Swift", "Kotlin",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "GraphQL",
	"Docker", "Kubernetes", "AWS", "Azure", "GCP", "CI/CD", "Git",
}

type pattern struct {
	skill string
	re    *regexp.Regexp
}

var patterns = buildPatterns(Vocabulary)

// buildPatterns compiles one anchored regexp per vocabulary term. Plain \b
// does not work for terms with leading or trailing punctuation (".NET",
// "C#", "CI/CD"), so boundaries are expressed as not-alphanumeric instead.
func buildPatterns(vocab []string) []pattern {
	compiled := make([]pattern, 0, len(vocab))
	for _, skill := range vocab {
		expr := `(?i)(^|[^a-z0-9])` + regexp.QuoteMeta(skill) + `($|[^a-z0-9])`
		compiled = append(compiled, pattern{skill: skill, re: regexp.MustCompile(expr)})
	}
	return compiled
}

// Extract returns the vocabulary terms present in text, each reported once
// under its canonical spelling, sorted lexicographically. Empty or
// unmatched input yields an empty result. Extract is pure and deterministic.
func Extract(text string) []string {
	found := make([]string, 0)
	if strings.TrimSpace(text) == "" {
		return found
	}

	for _, p := range patterns {
		if p.re.MatchString(text) {
			found = append(found, p.skill)
		}
	}

	sort.Strings(found)
	return found
}
