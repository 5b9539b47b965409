package filtering

import (
	"context"
	"strings"

	"github.com/spigell/jobmatch/internal/jobs"
)

const CompaniesName = "companies"

type companiesFilter struct {
	enabled   bool
	reason    string
	companies []string
}

// NewExcludedCompanies creates a filter that removes postings published by the configured companies.
func NewExcludedCompanies(companies []string) Filter {
	return &companiesFilter{
		enabled:   true,
		companies: companies,
	}
}

func (f *companiesFilter) Name() string { return CompaniesName }

func (f *companiesFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *companiesFilter) IsEnabled() bool { return f.enabled }

func (f *companiesFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"companies": strings.Join(f.companies, ",")},
	}
}

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	if len(f.companies) == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded := p.Exclude(jobs.PostingCompanyField, f.companies)

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}
