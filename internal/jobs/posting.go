// Package jobs holds job postings supplied by the collaborators and the small
// collection helpers used around the matcher.
package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	PostingIDField      = "ID"
	PostingCompanyField = "Company"
)

type Postings struct {
	Items []*Posting
}

type Posting struct {
	ID          string   `json:"id" mapstructure:"id"`
	Title       string   `json:"title" mapstructure:"title"`
	Company     string   `json:"company" mapstructure:"company"`
	Location    string   `json:"location,omitempty" mapstructure:"location"`
	Link        string   `json:"link,omitempty" mapstructure:"link"`
	PreviewDesc string   `json:"preview_desc,omitempty" mapstructure:"preview_desc"`
	Description string   `json:"full_desc,omitempty" mapstructure:"full_desc"`
	Skills      []string `json:"skills" mapstructure:"skills"`
	DatePosted  string   `json:"date_posted,omitempty" mapstructure:"date_posted"`
	// Extracted is filled by the skill gate and never supplied by callers.
	Extracted []string `json:"extracted_skills,omitempty" mapstructure:"-"`
}

// rawPosting accepts "description" as an alias of "full_desc".
type rawPosting struct {
	Posting     `mapstructure:",squash"`
	Description string `mapstructure:"description"`
}

// Decode converts loosely typed records into postings. Numeric ids become
// strings, a single skill string becomes a one element list and fields that
// cannot be converted are left empty.
func Decode(records []map[string]any) (*Postings, error) {
	postings := &Postings{Items: make([]*Posting, 0, len(records))}

	for _, record := range records {
		var raw rawPosting
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &raw,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, fmt.Errorf("build posting decoder: %w", err)
		}

		// Partial failures leave the offending field empty.
		_ = decoder.Decode(withoutNils(record))

		posting := raw.Posting
		if strings.TrimSpace(posting.Description) == "" {
			posting.Description = raw.Description
		}
		posting.normalize()
		postings.Items = append(postings.Items, &posting)
	}

	return postings, nil
}

// LoadFile reads a JSON array of postings (or an object with an "items"
// array) and decodes it with Decode.
func LoadFile(path string) (*Postings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(string(data)) == "" {
		return &Postings{}, nil
	}

	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		return Decode(list)
	}

	var wrapped struct {
		Items []map[string]any `json:"items"`
		Jobs  []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse postings file %s: %w", path, err)
	}

	if len(wrapped.Items) == 0 {
		wrapped.Items = wrapped.Jobs
	}
	return Decode(wrapped.Items)
}

func withoutNils(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func (p *Posting) normalize() {
	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	p.Company = strings.TrimSpace(p.Company)

	skills := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		if s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`)); s != "" {
			skills = append(skills, s)
		}
	}
	p.Skills = skills
}

// Text returns the full description, falling back to the preview.
func (p *Posting) Text() string {
	if strings.TrimSpace(p.Description) != "" {
		return p.Description
	}
	return p.PreviewDesc
}

// SkillSet returns the declared skills lowercased and deduplicated.
func (p *Posting) SkillSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Skills))
	for _, skill := range p.Skills {
		if s := strings.ToLower(strings.TrimSpace(skill)); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return p.ID
	case PostingCompanyField:
		return p.Company
	default:
		return ""
	}
}

func (ps *Postings) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.Items)
}

func (ps *Postings) FindByID(id string) *Posting {
	for _, p := range ps.Items {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Exclude drops postings whose field matches one of targets
// (case-insensitive) and returns the ids of the removed postings. The order of
// the remaining postings is preserved.
func (ps *Postings) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	lookup := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		lookup[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	var excluded []string
	kept := ps.Items[:0]
	for _, p := range ps.Items {
		if _, ok := lookup[strings.ToLower(p.GetStringField(field))]; ok {
			excluded = append(excluded, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	ps.Items = kept

	return excluded
}

// ReportByCompany groups postings by company for a quick overview.
func (ps *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, p := range ps.Items {
		key := p.Company
		if key == "" {
			key = "unknown"
		}
		report[key] = append(report[key], map[string]string{
			"id":          p.ID,
			"title":       p.Title,
			"location":    p.Location,
			"link":        p.Link,
			"date_posted": p.DatePosted,
			"skills":      strings.Join(p.Skills, ", "),
		})
	}
	return report
}

func (ps *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ps.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Clone copies the list and every posting so filters and matchers can annotate
// postings without touching the caller's values.
func (ps *Postings) Clone() *Postings {
	out := &Postings{Items: make([]*Posting, 0, ps.Len())}
	if ps == nil {
		return out
	}
	for _, p := range ps.Items {
		if p == nil {
			continue
		}
		cp := *p
		cp.Skills = append([]string(nil), p.Skills...)
		cp.Extracted = append([]string(nil), p.Extracted...)
		out.Items = append(out.Items, &cp)
	}
	return out
}
