package filtering

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/skills"
)

func samplePostings() *jobs.Postings {
	return &jobs.Postings{Items: []*jobs.Posting{
		{ID: "1", Title: "Data Engineer", Company: "Acme", Description: "Python, SQL and Airflow pipelines"},
		{ID: "2", Title: "Barista", Company: "Beans", Description: "Make great coffee"},
		{ID: "3", Title: "Backend developer", Company: "ACME", Description: "Golang and Kubernetes"},
		{ID: "4", Title: "Frontend", Company: "Pixel", Description: "React only"},
	}}
}

func defaultExtractor(t *testing.T) *skills.Extractor {
	t.Helper()
	ext, err := skills.Default()
	if err != nil {
		t.Fatalf("load extractor: %v", err)
	}
	return ext
}

func TestSkillGateKeepsTechnicalPostings(t *testing.T) {
	gate := NewSkillGate(&SkillGateConfig{Enabled: true, Workers: 2}, &SkillGateDeps{Extractor: defaultExtractor(t)})

	out, step, err := gate.Apply(context.Background(), samplePostings())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if step.Initial != 4 || step.Dropped != 2 || step.Left != 2 {
		t.Fatalf("unexpected step %+v", step)
	}

	if out.Items[0].ID != "1" || out.Items[1].ID != "3" {
		t.Fatalf("unexpected survivors %s, %s", out.Items[0].ID, out.Items[1].ID)
	}

	want := []string{"airflow", "python", "sql"}
	got := out.Items[0].Extracted
	if len(got) != len(want) {
		t.Fatalf("unexpected extracted skills %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected extracted skills %v", got)
		}
	}
}

func TestSkillGateEmptyResultIsNotAnError(t *testing.T) {
	gate := NewSkillGate(&SkillGateConfig{Enabled: true, MinSkills: 10}, &SkillGateDeps{Extractor: defaultExtractor(t)})

	out, step, err := gate.Apply(context.Background(), samplePostings())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Len() != 0 || step.Left != 0 {
		t.Fatalf("expected empty pool, got %d", out.Len())
	}
}

func TestSkillGateRecordsDroppedPostings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	gate := NewSkillGate(
		&SkillGateConfig{Enabled: true, ExcludeFile: path},
		&SkillGateDeps{Extractor: defaultExtractor(t)},
	)

	if _, _, err := gate.Apply(context.Background(), samplePostings()); err != nil {
		t.Fatalf("apply: %v", err)
	}

	excluded, err := jobs.GetExcludedFromFile(path)
	if err != nil {
		t.Fatalf("read exclude file: %v", err)
	}

	ids := excluded.IDs()
	if len(ids) != 2 || ids[0] != "2" || ids[1] != "4" {
		t.Fatalf("unexpected excluded ids %v", ids)
	}
	if excluded.Items[0].Actor != jobs.ExcludeActorMatcher {
		t.Fatalf("unexpected actor %q", excluded.Items[0].Actor)
	}
}

func TestSkillGateValidate(t *testing.T) {
	if err := NewSkillGate(nil, nil).Validate(); err == nil {
		t.Fatalf("expected validation error without extractor")
	}
}

func TestRunFiltersSequence(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dir := t.TempDir()
	excludePath := filepath.Join(dir, "exclude.json")

	manual := (&jobs.Postings{Items: []*jobs.Posting{{ID: "3"}}}).ToExcluded(jobs.ExcludeActorUser, "seen")
	if err := manual.ToFile(excludePath); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	f := New([]Filter{
		NewExcludedCompanies([]string{"pixel"}),
		NewExcludeFile(excludePath),
		NewSkillGate(&SkillGateConfig{Enabled: true}, &SkillGateDeps{Extractor: defaultExtractor(t)}),
	}, zap.New(core))

	out, err := f.RunFilters(context.Background(), samplePostings())
	if err != nil {
		t.Fatalf("run filters: %v", err)
	}

	if out.Len() != 1 || out.Items[0].ID != "1" {
		t.Fatalf("unexpected result %+v", out.Items)
	}

	entries := logs.FilterMessage("filter step").All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 step logs, got %d", len(entries))
	}
	if name := entries[0].ContextMap()["name"]; name != "companies" {
		t.Fatalf("unexpected first step %v", name)
	}
	if dropped := entries[2].ContextMap()["dropped"]; dropped != int64(1) {
		t.Fatalf("unexpected skill gate drop count %v", dropped)
	}
}

func TestRunFiltersSkipsDisabledSteps(t *testing.T) {
	gate := NewSkillGate(&SkillGateConfig{Enabled: true}, nil)
	f := New([]Filter{gate}, nil)

	if _, err := f.RunFilters(context.Background(), samplePostings()); err == nil {
		t.Fatalf("expected validation error for enabled gate without extractor")
	}

	f.DisableByName(SkillGateName, "semantic strategy off")
	out, err := f.RunFilters(context.Background(), samplePostings())
	if err != nil {
		t.Fatalf("run filters: %v", err)
	}
	if out.Len() != 4 {
		t.Fatalf("expected untouched pool, got %d", out.Len())
	}

	statuses := f.Describe()
	if len(statuses) != 1 || statuses[0].Enabled || statuses[0].Reason != "semantic strategy off" {
		t.Fatalf("unexpected status %+v", statuses)
	}
}

type failingFilter struct{}

func (failingFilter) Name() string    { return "failing" }
func (failingFilter) Disable(string)  {}
func (failingFilter) IsEnabled() bool { return true }
func (failingFilter) Validate() error { return nil }
func (failingFilter) Apply(context.Context, *jobs.Postings) (*jobs.Postings, Step, error) {
	return nil, Step{}, errors.New("boom")
}

func TestRunFiltersWrapsStepErrors(t *testing.T) {
	_, err := New([]Filter{failingFilter{}}, nil).RunFilters(context.Background(), samplePostings())
	if err == nil || err.Error() != "failing: boom" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSkillGateFallsBackToPreview(t *testing.T) {
	gate := NewSkillGate(&SkillGateConfig{Enabled: true}, &SkillGateDeps{Extractor: defaultExtractor(t)})

	postings := &jobs.Postings{Items: []*jobs.Posting{
		{ID: "preview-only", Title: "Engineer", PreviewDesc: "Python and Docker on AWS"},
		{ID: "empty", Title: "Engineer"},
	}}

	out, step, err := gate.Apply(context.Background(), postings)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if step.Left != 1 || out.Items[0].ID != "preview-only" {
		t.Fatalf("unexpected survivors %+v", step)
	}
	if got := out.Items[0].Extracted; len(got) != 3 {
		t.Fatalf("unexpected extracted skills %v", got)
	}
}

func TestDisabledPoolFiltersAreSkippedAndDescribed(t *testing.T) {
	f := New([]Filter{
		NewExcludedCompanies(nil),
		NewExcludeFile(""),
		NewExcludedCompanies([]string{"beans"}),
	}, nil)

	f.DisableByName(ExcludeFileName, "exclude file is not set")

	out, err := f.RunFilters(context.Background(), samplePostings())
	if err != nil {
		t.Fatalf("run filters: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("expected the beans posting to be dropped, got %d left", out.Len())
	}

	statuses := f.Describe()
	if len(statuses) != 3 {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
	if statuses[0].Name != CompaniesName || !statuses[0].Enabled {
		t.Fatalf("unexpected companies status %+v", statuses[0])
	}
	if statuses[1].Name != ExcludeFileName || statuses[1].Enabled || statuses[1].Reason != "exclude file is not set" {
		t.Fatalf("unexpected exclude file status %+v", statuses[1])
	}
	if statuses[2].Details["companies"] != "beans" {
		t.Fatalf("unexpected details %+v", statuses[2].Details)
	}
}
