package filtering

import (
	"context"
	"fmt"

	"github.com/spigell/jobmatch/internal/jobs"
)

const ExcludeFileName = "exclude_file"

type excludeFileFilter struct {
	enabled bool
	reason  string
	path    string
}

// NewExcludeFile creates a filter that removes postings listed in the exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{
		enabled: true,
		path:    path,
	}
}

func (f *excludeFileFilter) Name() string { return ExcludeFileName }

func (f *excludeFileFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return f.enabled }

func (f *excludeFileFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"path": f.path},
	}
}

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if f.path == "" {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded, err := jobs.GetExcludedFromFile(f.path)
	if err != nil {
		return p, Step{}, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	removed := p.Exclude(jobs.PostingIDField, excluded.IDs())

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}
