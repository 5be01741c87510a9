package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/avelinas/repomatch/internal/domain"
	"github.com/avelinas/repomatch/internal/store"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func seedProjectAndJobs(t *testing.T, st store.Store, jobs int) (*domain.Project, []*domain.Job) {
	t.Helper()

	ctx := context.Background()
	project, err := st.UpsertProject(ctx, &domain.Project{
		RepoURL: "https://github.com/acme/widgets",
		Owner:   "acme",
		Name:    "widgets",
		Skills:  []string{"Go", "PostgreSQL"},
	})
	if err != nil {
		t.Fatalf("seeding project: %v", err)
	}

	seeded := make([]*domain.Job, 0, jobs)
	for i := range jobs {
		job, err := st.CreateJob(ctx, &domain.Job{
			Title:       fmt.Sprintf("Backend Engineer %d", i+1),
			Description: "Go and PostgreSQL",
		})
		if err != nil {
			t.Fatalf("seeding job: %v", err)
		}
		seeded = append(seeded, job)
	}

	return project, seeded
}

func scorerResponse(entries ...string) string {
	return fmt.Sprintf(`{"matches": [%s]}`, strings.Join(entries, ","))
}

func scoreEntry(id string, score any) string {
	return fmt.Sprintf(`{"candidateId": %q, "match_score": %v, "key_matches": ["Go"], "missing_skills": ["AWS"], "explanation": "solid overlap"}`, id, score)
}

func TestMatchProjectToJobsOrdersByScore(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 3)

	stub := &stubGenerator{response: scorerResponse(
		scoreEntry(jobs[0].ID, 40),
		scoreEntry(jobs[1].ID, 90),
		scoreEntry(jobs[2].ID, 70),
	)}
	matcher := New(stub, st, zap.NewNop(), 0)

	results, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].JobID != jobs[1].ID || results[1].JobID != jobs[2].ID || results[2].JobID != jobs[0].ID {
		t.Fatalf("unexpected ordering: %v %v %v", results[0].Score, results[1].Score, results[2].Score)
	}

	if results[0].Direction != domain.ProjectToJob {
		t.Fatalf("unexpected direction: %s", results[0].Direction)
	}

	if stub.calls != 1 {
		t.Fatalf("expected a single scorer call for the batch, got %d", stub.calls)
	}

	if !strings.Contains(stub.lastPrompt, "acme/widgets") {
		t.Fatalf("expected prompt to carry the project summary")
	}
}

func TestMatchTieBreakIsStable(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 3)

	stub := &stubGenerator{response: scorerResponse(
		scoreEntry(jobs[0].ID, 70),
		scoreEntry(jobs[1].ID, 70),
		scoreEntry(jobs[2].ID, 70),
	)}
	matcher := New(stub, st, zap.NewNop(), 0)

	results, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, job := range jobs {
		if results[i].JobID != job.ID {
			t.Fatalf("tie break changed candidate order at %d", i)
		}
	}
}

func TestMatchClampsScores(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 2)

	stub := &stubGenerator{response: scorerResponse(
		scoreEntry(jobs[0].ID, 150),
		scoreEntry(jobs[1].ID, -10),
	)}
	matcher := New(stub, st, zap.NewNop(), 0)

	results, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].Score != 100 {
		t.Fatalf("expected clamped high score 100, got %v", results[0].Score)
	}
	if results[1].Score != 0 {
		t.Fatalf("expected clamped low score 0, got %v", results[1].Score)
	}
}

func TestMatchTopNTruncates(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 3)

	stub := &stubGenerator{response: scorerResponse(
		scoreEntry(jobs[0].ID, 40),
		scoreEntry(jobs[1].ID, 90),
		scoreEntry(jobs[2].ID, 70),
	)}
	matcher := New(stub, st, zap.NewNop(), 0)

	results, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].JobID != jobs[1].ID {
		t.Fatalf("expected best match first after truncation")
	}

	// Truncation only trims the returned view; everything scored stays stored.
	stored, err := st.ListMatches(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored results, got %d", len(stored))
	}
}

func TestMatchNoCandidates(t *testing.T) {
	st := store.NewMemory()
	project, _ := seedProjectAndJobs(t, st, 0)

	stub := &stubGenerator{response: scorerResponse()}
	matcher := New(stub, st, zap.NewNop(), 0)

	_, err := matcher.MatchProjectToJobs(context.Background(), project, nil, 0)
	if !domain.IsKind(err, domain.NoCandidates) {
		t.Fatalf("expected no_candidates failure, got %v", err)
	}

	if stub.calls != 0 {
		t.Fatalf("expected no scorer call without candidates")
	}

	stored, _ := st.ListMatches(context.Background(), 0)
	if len(stored) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(stored))
	}

	audit, _ := st.ListAudit(context.Background(), 0)
	if len(audit) != 0 {
		t.Fatalf("matching must not write audit entries, got %d", len(audit))
	}
}

func TestMatchGeneratorFailure(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 1)

	stub := &stubGenerator{err: errors.New("rate limited")}
	matcher := New(stub, st, zap.NewNop(), 0)

	_, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0)
	if !domain.IsKind(err, domain.UpstreamUnavailable) {
		t.Fatalf("expected upstream_unavailable failure, got %v", err)
	}
}

func TestMatchMalformedResponsePersistsNothing(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 1)

	stub := &stubGenerator{response: "sorry, I cannot help with that"}
	matcher := New(stub, st, zap.NewNop(), 0)

	_, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0)
	if !domain.IsKind(err, domain.MalformedScorerOutput) {
		t.Fatalf("expected malformed_scorer_output failure, got %v", err)
	}

	stored, _ := st.ListMatches(context.Background(), 0)
	if len(stored) != 0 {
		t.Fatalf("expected nothing stored after malformed output, got %d", len(stored))
	}
}

func TestMatchHandlesFencedJSON(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 1)

	stub := &stubGenerator{response: "```json\n" + scorerResponse(scoreEntry(jobs[0].ID, "\"80\"")) + "\n```"}
	matcher := New(stub, st, zap.NewNop(), 0)

	results, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 || results[0].Score != 80 {
		t.Fatalf("expected one result with score 80, got %v", results)
	}
}

func TestMatchDropsUnresolvableCandidates(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 1)

	stub := &stubGenerator{response: scorerResponse(
		scoreEntry("made-up-id", 95),
		scoreEntry(jobs[0].ID, 60),
	)}
	matcher := New(stub, st, zap.NewNop(), 0)

	results, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 || results[0].JobID != jobs[0].ID {
		t.Fatalf("expected only the resolvable candidate, got %v", results)
	}
}

func TestMatchRecomputationOverwrites(t *testing.T) {
	st := store.NewMemory()
	project, jobs := seedProjectAndJobs(t, st, 1)

	first := &stubGenerator{response: scorerResponse(scoreEntry(jobs[0].ID, 40))}
	matcher := New(first, st, zap.NewNop(), 0)

	if _, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &stubGenerator{response: scorerResponse(scoreEntry(jobs[0].ID, 90))}
	matcher = New(second, st, zap.NewNop(), 0)

	results, err := matcher.MatchProjectToJobs(context.Background(), project, jobs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if results[0].Score != 90 {
		t.Fatalf("expected refreshed score 90, got %v", results[0].Score)
	}

	stored, _ := st.ListMatches(context.Background(), 0)
	if len(stored) != 1 {
		t.Fatalf("expected one stored result for the pair, got %d", len(stored))
	}
	if stored[0].Score != 90 {
		t.Fatalf("expected stored score 90, got %v", stored[0].Score)
	}
}

func TestMatchJobToProjects(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	job, err := st.CreateJob(ctx, &domain.Job{Title: "Backend Engineer", Description: "Go and PostgreSQL"})
	if err != nil {
		t.Fatalf("seeding job: %v", err)
	}

	var projects []*domain.Project
	for _, name := range []string{"widgets", "gadgets"} {
		project, err := st.UpsertProject(ctx, &domain.Project{
			RepoURL: "https://github.com/acme/" + name,
			Owner:   "acme",
			Name:    name,
		})
		if err != nil {
			t.Fatalf("seeding project: %v", err)
		}
		projects = append(projects, project)
	}

	stub := &stubGenerator{response: scorerResponse(
		scoreEntry(projects[0].ID, 55),
		scoreEntry(projects[1].ID, 75),
	)}
	matcher := New(stub, st, zap.NewNop(), 0)

	results, err := matcher.MatchJobToProjects(ctx, job, projects, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ProjectID != projects[1].ID {
		t.Fatalf("expected the gadgets project first")
	}
	if results[0].Direction != domain.JobToProject {
		t.Fatalf("unexpected direction: %s", results[0].Direction)
	}
	if results[0].JobID != job.ID {
		t.Fatalf("expected results to reference the source job")
	}
}

func TestParseScorerResponseWithoutMatchesKey(t *testing.T) {
	entries, err := parseScorerResponse(`{"note": "nothing matched"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}
