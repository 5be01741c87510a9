// Package github talks to the GitHub REST API and profiles repositories
// into normalized project records.
package github

import (
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL      = "https://api.github.com"
	userAgent   = "repomatch (github.com/avelinas/repomatch)"
	contentType = "application/vnd.github+json"
)

// Client is a thin GitHub REST API client. A token is optional; without one
// requests run against the unauthenticated rate limit.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func NewClient(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Repo mirrors the fields of the repository metadata response the profiler
// consumes.
type Repo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Topics       []string `json:"topics"`
	Stars        int      `json:"stargazers_count"`
	Forks        int      `json:"forks_count"`
	LanguagesURL string   `json:"languages_url"`
}

// ContentItem is one entry of a contents listing, or a single file response
// when fetched by path.
type ContentItem struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Size     int    `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type commitItem struct {
	Commit struct {
		Committer struct {
			Date string `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

func (c *Client) GetRepo(ctx context.Context, owner, name string) (*Repo, error) {
	var repo Repo
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s", c.APIURL, owner, name), nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetLanguages fetches the language-to-byte-count mapping. languagesURL
// comes from the repository metadata payload.
func (c *Client) GetLanguages(ctx context.Context, languagesURL string) (map[string]int, error) {
	languages := make(map[string]int)
	if err := c.getJSON(ctx, languagesURL, nil, &languages); err != nil {
		return nil, err
	}
	return languages, nil
}

// GetReadme fetches the repository README and decodes it from its transport
// encoding (base64 with embedded newlines).
func (c *Client) GetReadme(ctx context.Context, owner, name string) (string, error) {
	var item ContentItem
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s/readme", c.APIURL, owner, name), nil, &item); err != nil {
		return "", err
	}
	return decodeContent(&item)
}

// GetContents fetches the top-level file and directory listing.
func (c *Client) GetContents(ctx context.Context, owner, name string) ([]ContentItem, error) {
	var items []ContentItem
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s/contents", c.APIURL, owner, name), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetFile fetches one file by path and returns its decoded content.
func (c *Client) GetFile(ctx context.Context, owner, name, path string) (string, error) {
	var item ContentItem
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.APIURL, owner, name, path), nil, &item); err != nil {
		return "", err
	}
	return decodeContent(&item)
}

// GetLastCommit returns the timestamp of the most recent commit, or nil when
// the repository has none.
func (c *Client) GetLastCommit(ctx context.Context, owner, name string) (*time.Time, error) {
	var commits []commitItem
	q := url.Values{}
	q.Set("per_page", "1")

	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/%s/commits", c.APIURL, owner, name), q, &commits); err != nil {
		return nil, err
	}

	if len(commits) == 0 {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, commits[0].Commit.Committer.Date)
	if err != nil {
		return nil, fmt.Errorf("parse commit date: %w", err)
	}
	return &parsed, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)

	return req
}

// decodeContent turns a contents payload into plain text. The API delivers
// file bodies base64-encoded with line breaks sprinkled in.
func decodeContent(item *ContentItem) (string, error) {
	if item.Encoding != "" && item.Encoding != "base64" {
		return "", fmt.Errorf("unsupported content encoding: %s", item.Encoding)
	}

	compact := strings.ReplaceAll(item.Content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return string(decoded), nil
}
