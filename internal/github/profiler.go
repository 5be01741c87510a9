package github

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/avelinas/repomatch/internal/domain"
	"github.com/avelinas/repomatch/internal/skills"
	"github.com/avelinas/repomatch/internal/store"
)

var repoURLPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s?#]+)`)

// ParseRepoURL extracts the owner and repository name from a GitHub URL or
// an owner/name shorthand.
func ParseRepoURL(raw string) (owner, name string, err error) {
	raw = strings.TrimSpace(raw)

	if m := repoURLPattern.FindStringSubmatch(raw); m != nil {
		return m[1], strings.TrimSuffix(m[2], ".git"), nil
	}

	// owner/name shorthand without a host
	parts := strings.Split(raw, "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" && !strings.Contains(raw, " ") {
		return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
	}

	return "", "", domain.Failf(domain.InvalidIdentifier, "not a GitHub repository identifier: %q", raw)
}

// Profiler builds normalized project records from GitHub repositories.
//
// Only the identifier parse and the metadata fetch are fatal; every later
// step degrades to an empty value. Each profiling attempt writes exactly one
// audit entry; degraded steps are noted in its message while the entry stays
// successful.
type Profiler struct {
	client *Client
	store  store.Store
	logger *zap.Logger
}

func NewProfiler(client *Client, st store.Store, logger *zap.Logger) *Profiler {
	return &Profiler{client: client, store: st, logger: logger}
}

// Profile fetches, normalizes and upserts the project for repoURL. The
// project is keyed on its source URL: re-profiling updates the existing
// record. Skills are derived from description and README at profiling time.
func (p *Profiler) Profile(ctx context.Context, repoURL string) (*domain.Project, error) {
	owner, name, err := ParseRepoURL(repoURL)
	if err != nil {
		p.audit(ctx, repoURL, false, err.Error())
		return nil, err
	}

	repo, err := p.client.GetRepo(ctx, owner, name)
	if err != nil {
		failure := domain.NewFailure(domain.UpstreamUnavailable, "fetching repository metadata", err)
		p.audit(ctx, repoURL, false, failure.Error())
		return nil, failure
	}

	var degraded []string
	note := func(step string, err error) {
		degraded = append(degraded, fmt.Sprintf("%s: %v", step, err))
		p.logger.Warn("profiling step degraded", zap.String("repo", owner+"/"+name),
			zap.String("step", step), zap.Error(err))
	}

	languagesURL := repo.LanguagesURL
	if languagesURL == "" {
		languagesURL = fmt.Sprintf("%s/repos/%s/%s/languages", p.client.APIURL, owner, name)
	}
	languages, err := p.client.GetLanguages(ctx, languagesURL)
	if err != nil {
		languages = map[string]int{}
		note("languages", err)
	}

	readme, err := p.client.GetReadme(ctx, owner, name)
	if err != nil {
		readme = ""
		note("readme", err)
	}

	fileStructure := make(map[string]domain.FileEntry)
	contents, err := p.client.GetContents(ctx, owner, name)
	if err != nil {
		note("contents", err)
	} else {
		for _, item := range contents {
			kind := "file"
			size := item.Size
			if item.Type == "dir" {
				kind = "dir"
				size = 0
			}
			fileStructure[item.Name] = domain.FileEntry{Kind: kind, Size: size, Path: item.Path}
		}
	}

	dependencies := p.fetchDependencies(ctx, owner, name)

	lastCommit, err := p.client.GetLastCommit(ctx, owner, name)
	if err != nil {
		lastCommit = nil
		note("last commit", err)
	}

	project := &domain.Project{
		RepoURL:       repoURL,
		Owner:         owner,
		Name:          name,
		Description:   repo.Description,
		Languages:     languages,
		Topics:        repo.Topics,
		ReadmeContent: readme,
		FileStructure: fileStructure,
		Dependencies:  dependencies,
		Stars:         repo.Stars,
		Forks:         repo.Forks,
		LastCommit:    lastCommit,
		Skills:        skills.Extract(repo.Description + "\n" + readme),
	}

	saved, err := p.store.UpsertProject(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("saving project %s: %w", project.FullName(), err)
	}

	p.audit(ctx, repoURL, true, strings.Join(degraded, "; "))
	p.logger.Info("profiled repository",
		zap.String("repo", saved.FullName()),
		zap.Int("skills", len(saved.Skills)),
		zap.Int("degraded_steps", len(degraded)),
	)

	return saved, nil
}

// fetchDependencies probes the well-known manifest paths. Missing or
// unparseable manifests contribute nothing; they are expected to be absent
// in most repositories and are not reported as degradation.
func (p *Profiler) fetchDependencies(ctx context.Context, owner, name string) map[string]map[string]string {
	dependencies := make(map[string]map[string]string)
	for _, manifest := range manifestPaths {
		content, err := p.client.GetFile(ctx, owner, name, manifest.path)
		if err != nil {
			continue
		}
		if deps := manifest.parse(content); deps != nil {
			dependencies[manifest.ecosystem] = deps
		}
	}
	return dependencies
}

func (p *Profiler) audit(ctx context.Context, url string, success bool, message string) {
	entry := &domain.AuditEntry{URL: url, Success: success, ErrorMessage: message}
	if err := p.store.AppendAudit(ctx, entry); err != nil {
		p.logger.Warn("appending audit entry", zap.String("url", url), zap.Error(err))
	}
}
