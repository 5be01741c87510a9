package skills

import (
	"regexp"

	"github.com/avelinas/repomatch/internal/domain"
)

var (
	seniorRegex = regexp.MustCompile(`(?i)\b(senior|staff|principal|lead|architect|([5-9]|\d{2,})\s*\+?\s*years?)\b`)
	entryRegex  = regexp.MustCompile(`(?i)\b(junior|entry[\s-]?level|intern(ship)?|graduate|trainee|fresher)\b`)
	midRegex    = regexp.MustCompile(`(?i)\b(mid[\s-]?level|intermediate|[2-4]\s*\+?\s*years?)\b`)

	partTimeRegex = regexp.MustCompile(`(?i)\bpart[\s-]?time\b`)
	contractRegex = regexp.MustCompile(`(?i)\b(contract(or)?|freelanc(e|er)|temporary)\b`)
	fullTimeRegex = regexp.MustCompile(`(?i)\b(full[\s-]?time|permanent)\b`)
)

// ExperienceLevel classifies the seniority a posting asks for. Senior
// markers win over entry markers, which win over mid markers; text with no
// marker stays unclassified.
func ExperienceLevel(text string) domain.ExperienceLevel {
	switch {
	case seniorRegex.MatchString(text):
		return domain.ExperienceSenior
	case entryRegex.MatchString(text):
		return domain.ExperienceEntry
	case midRegex.MatchString(text):
		return domain.ExperienceMid
	default:
		return ""
	}
}

// JobType classifies the employment kind mentioned in a posting.
func JobType(text string) domain.JobType {
	switch {
	case partTimeRegex.MatchString(text):
		return domain.JobTypePartTime
	case contractRegex.MatchString(text):
		return domain.JobTypeContract
	case fullTimeRegex.MatchString(text):
		return domain.JobTypeFullTime
	default:
		return ""
	}
}
