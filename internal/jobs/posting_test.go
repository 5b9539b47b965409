package jobs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDecodeWeakRecords(t *testing.T) {
	records := []map[string]any{
		{
			"id":          float64(7),
			"title":       "  Backend Engineer ",
			"company":     "Acme",
			"full_desc":   "Build APIs in Go",
			"skills":      []any{"Go", " \"SQL\" ", ""},
			"date_posted": "2 days ago",
		},
		{
			"id":          "b-2",
			"description": "Alias description",
			"skills":      "Python",
		},
		{
			"id":     "c-3",
			"title":  nil,
			"skills": nil,
		},
	}

	postings, err := Decode(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if postings.Len() != 3 {
		t.Fatalf("expected 3 postings, got %d", postings.Len())
	}

	first := postings.Items[0]
	if first.ID != "7" || first.Title != "Backend Engineer" {
		t.Fatalf("unexpected first posting: %+v", first)
	}
	if !reflect.DeepEqual(first.Skills, []string{"Go", "SQL"}) {
		t.Fatalf("unexpected skills: %#v", first.Skills)
	}

	second := postings.Items[1]
	if second.Text() != "Alias description" {
		t.Fatalf("expected description alias to be used, got %q", second.Text())
	}
	if !reflect.DeepEqual(second.Skills, []string{"Python"}) {
		t.Fatalf("expected single skill list, got %#v", second.Skills)
	}

	third := postings.Items[2]
	if third.Title != "" || len(third.Skills) != 0 || third.Text() != "" {
		t.Fatalf("expected empty posting, got %+v", third)
	}
}

func TestExcludePreservesOrder(t *testing.T) {
	postings := &Postings{Items: []*Posting{
		{ID: "1", Company: "Acme"},
		{ID: "2", Company: "Globex"},
		{ID: "3", Company: "acme"},
		{ID: "4", Company: "Initech"},
	}}

	excluded := postings.Exclude(PostingCompanyField, []string{"ACME"})
	if !reflect.DeepEqual(excluded, []string{"1", "3"}) {
		t.Fatalf("unexpected excluded ids: %v", excluded)
	}

	var ids []string
	for _, p := range postings.Items {
		ids = append(ids, p.ID)
	}
	if !reflect.DeepEqual(ids, []string{"2", "4"}) {
		t.Fatalf("unexpected remaining order: %v", ids)
	}
}

func TestExcludedFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	missing, err := GetExcludedFromFile(path)
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if len(missing.Items) != 0 {
		t.Fatalf("expected empty list for missing file")
	}

	postings := &Postings{Items: []*Posting{{ID: "9", Company: "Acme"}}}
	missing.Append(postings.ToExcluded(ExcludeActorUser, "not interested"))
	if err := missing.ToFile(path); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	loaded, err := GetExcludedFromFile(path)
	if err != nil {
		t.Fatalf("read exclude file: %v", err)
	}
	if !reflect.DeepEqual(loaded.IDs(), []string{"9"}) {
		t.Fatalf("unexpected ids: %v", loaded.IDs())
	}
	if loaded.Items[0].Reason != "not interested" {
		t.Fatalf("unexpected reason: %q", loaded.Items[0].Reason)
	}
}

func TestLoadFileAcceptsWrappedItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	content := `{"count": 1, "jobs": [{"id": 1, "title": "Data Engineer"}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write jobs file: %v", err)
	}

	postings, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if postings.Len() != 1 || postings.Items[0].ID != "1" {
		t.Fatalf("unexpected postings: %+v", postings.Items)
	}
}

func TestSortByDatePosted(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []*Posting{
		{ID: "unknown", DatePosted: "sometime"},
		{ID: "old", DatePosted: "2025-01-01"},
		{ID: "recent", DatePosted: "2 days ago"},
		{ID: "today", DatePosted: "Today"},
		{ID: "month", DatePosted: "30+ days ago"},
		{ID: "also-unknown"},
	}

	SortByDatePosted(items, func(p *Posting) string { return p.DatePosted }, now)

	var got []string
	for _, p := range items {
		got = append(got, p.ID)
	}
	want := []string{"today", "recent", "month", "old", "unknown", "also-unknown"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestParseDatePostedNamedMonth(t *testing.T) {
	got, ok := ParseDatePosted("Mar 3, 2025", time.Now())
	if !ok {
		t.Fatal("expected named month date to parse")
	}
	if got.Month() != time.March || got.Day() != 3 {
		t.Fatalf("unexpected date: %v", got)
	}
}

func TestParseDatePostedTimestamps(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Time
	}{
		{value: "2024-01-02T10:00:00Z", want: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
		{value: " 2024-01-02T10:00:00+02:00 ", want: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)},
		{value: "2024-01-02", want: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{value: "MAR 3, 2025", want: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := ParseDatePosted(tt.value, now)
		if !ok {
			t.Fatalf("%q: expected to parse", tt.value)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("%q: got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSortByDatePostedTimestamps(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []*Posting{
		{ID: "unknown", DatePosted: "soon"},
		{ID: "older", DatePosted: "2025-03-01T09:00:00Z"},
		{ID: "newer", DatePosted: "2025-03-09T09:00:00+01:00"},
	}

	SortByDatePosted(items, func(p *Posting) string { return p.DatePosted }, now)

	var got []string
	for _, p := range items {
		got = append(got, p.ID)
	}
	want := []string{"newer", "older", "unknown"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %v", got)
	}
}
