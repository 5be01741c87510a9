package scrape

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Selector patterns per field, in priority order. Job boards disagree
// wildly on markup, so each list starts with board-specific classes and
// falls back to generic ones. The first selector with non-empty text wins.
var (
	titleSelectors = []string{
		".jobsearch-JobInfoHeader-title",
		".job-title",
		".top-card-layout__title",
		"h1",
	}
	companySelectors = []string{
		".jobsearch-InlineCompanyRating",
		".company-name",
		".employer-name",
		".topcard__org-name-link",
	}
	locationSelectors = []string{
		".jobsearch-JobInfoHeader-subtitle",
		".job-location",
		".location",
		".topcard__flavor--bullet",
	}
	descriptionSelectors = []string{
		".jobsearch-jobDescriptionText",
		".job-description",
		".description",
	}
	descriptionFallbacks = []string{
		"main",
		"#main-content",
		".main-content",
	}
	postedDateSelectors = []string{
		".posted-date",
		".jobsearch-JobMetadataFooter",
		".job-date",
		"time",
	}
)

// firstText returns the trimmed text of the first selector that matches a
// non-empty element, or "".
func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		node := doc.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text
		}
	}
	return ""
}

var postedDateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02/01/2006",
	time.RFC3339,
}

// parsePostedDate makes a lenient attempt at the scraped date text.
// Unparseable text yields nil; the posted timestamp is optional.
func parsePostedDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "Posted ")
	text = strings.TrimPrefix(text, "posted ")
	if text == "" {
		return nil
	}

	for _, layout := range postedDateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return &parsed
		}
	}
	return nil
}
