// Package scrape turns job posting pages and pasted text into normalized
// job records.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/avelinas/repomatch/internal/domain"
	"github.com/avelinas/repomatch/internal/skills"
	"github.com/avelinas/repomatch/internal/store"
)

const (
	// Browser-like user agent; many boards reject obvious bots outright.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	defaultProxyURL = "http://api.scraperapi.com"

	sourceUnknown = "unknown"
)

// defaultJobBoards are the domains recognized as source-site labels.
var defaultJobBoards = []string{
	"indeed", "linkedin", "glassdoor", "monster", "ziprecruiter",
	"wellfound", "remoteok", "stackoverflow",
}

// Config controls fetching behavior and source labeling.
type Config struct {
	UserAgent string
	// ProxyAPIKey enables routing through a scraping proxy for sites that
	// block direct fetches. The target URL travels as a query parameter.
	ProxyAPIKey string
	ProxyURL    string
	JobBoards   []string
	Timeout     time.Duration
}

// Overrides carries caller-supplied field values. Non-empty values win over
// scraped ones; scraped values only fill the gaps.
type Overrides struct {
	Title       string
	Company     string
	Location    string
	Description string
}

// Scraper fetches and parses job postings. Every network attempt, success
// or failure, appends one audit entry.
type Scraper struct {
	cfg        Config
	httpClient *http.Client
	store      store.Store
	logger     *zap.Logger
}

func New(cfg Config, st store.Store, logger *zap.Logger) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.ProxyURL == "" {
		cfg.ProxyURL = defaultProxyURL
	}
	if len(cfg.JobBoards) == 0 {
		cfg.JobBoards = defaultJobBoards
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Scraper{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		store:      st,
		logger:     logger,
	}
}

// Scrape fetches jobURL, parses the page and persists the resulting job.
// A new record is created on every call, including repeated calls with the
// same URL; deduplication is the caller's decision. Missing fields are not
// fatal: a posting with only a title still gets persisted.
func (s *Scraper) Scrape(ctx context.Context, jobURL string, overrides *Overrides) (*domain.Job, error) {
	html, err := s.fetch(ctx, jobURL)
	if err != nil {
		failure := domain.NewFailure(domain.UpstreamUnavailable, "fetching job page", err)
		s.audit(ctx, jobURL, false, failure.Error())
		return nil, failure
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		failure := domain.NewFailure(domain.UpstreamUnavailable, "parsing job page markup", err)
		s.audit(ctx, jobURL, false, failure.Error())
		return nil, failure
	}

	job := &domain.Job{
		Title:       firstText(doc, titleSelectors),
		Company:     firstText(doc, companySelectors),
		Location:    firstText(doc, locationSelectors),
		Description: scrapeDescription(doc),
		URL:         jobURL,
		Source:      sourceLabel(jobURL, s.cfg.JobBoards),
		PostedAt:    parsePostedDate(firstText(doc, postedDateSelectors)),
	}
	applyOverrides(job, overrides)
	deriveSignals(job)

	saved, err := s.store.CreateJob(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("saving job from %s: %w", jobURL, err)
	}

	s.audit(ctx, jobURL, true, "")
	s.logger.Info("scraped job posting",
		zap.String("url", jobURL),
		zap.String("source", saved.Source),
		zap.String("title", saved.Title),
	)

	return saved, nil
}

// BuildJob persists a job from caller-provided text without touching the
// network. No audit entry is written since nothing was fetched. The URL is
// optional and only used for the source label.
func (s *Scraper) BuildJob(ctx context.Context, title, description, jobURL string) (*domain.Job, error) {
	job := &domain.Job{
		Title:       title,
		Description: description,
		URL:         jobURL,
		Source:      sourceLabel(jobURL, s.cfg.JobBoards),
	}
	deriveSignals(job)

	saved, err := s.store.CreateJob(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("saving job %q: %w", title, err)
	}
	return saved, nil
}

func (s *Scraper) fetch(ctx context.Context, jobURL string) (string, error) {
	requestURL := jobURL
	if s.cfg.ProxyAPIKey != "" {
		q := url.Values{}
		q.Set("api_key", s.cfg.ProxyAPIKey)
		q.Set("url", jobURL)
		requestURL = s.cfg.ProxyURL + "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	s.logger.Debug("fetch job page", zap.String("url", jobURL), zap.Bool("proxied", requestURL != jobURL))
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	return string(body), nil
}

func scrapeDescription(doc *goquery.Document) string {
	if text := firstText(doc, descriptionSelectors); text != "" {
		return text
	}
	// No description block; fall back to the main content area.
	return firstText(doc, descriptionFallbacks)
}

func applyOverrides(job *domain.Job, overrides *Overrides) {
	if overrides == nil {
		return
	}
	if overrides.Title != "" {
		job.Title = overrides.Title
	}
	if overrides.Company != "" {
		job.Company = overrides.Company
	}
	if overrides.Location != "" {
		job.Location = overrides.Location
	}
	if overrides.Description != "" {
		job.Description = overrides.Description
	}
}

// deriveSignals fills the extracted skill set and the categorical fields
// from the posting text.
func deriveSignals(job *domain.Job) {
	text := job.Title + "\n" + job.Description
	job.SkillsRequired = skills.Extract(text)
	job.ExperienceLevel = skills.ExperienceLevel(text)
	job.JobType = skills.JobType(text)
}

// sourceLabel matches the URL against the known job-board domains.
func sourceLabel(jobURL string, boards []string) string {
	if jobURL == "" {
		return sourceUnknown
	}
	lowered := strings.ToLower(jobURL)
	for _, board := range boards {
		if strings.Contains(lowered, board) {
			return board
		}
	}
	return sourceUnknown
}

func (s *Scraper) audit(ctx context.Context, url string, success bool, message string) {
	entry := &domain.AuditEntry{URL: url, Success: success, ErrorMessage: message}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Warn("appending audit entry", zap.String("url", url), zap.Error(err))
	}
}
