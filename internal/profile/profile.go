// Package profile holds the candidate profile consumed by the matcher and the
// tolerant decoding used to build it from loosely typed records.
package profile

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrNoProfile is returned when there is no profile record at all.
var ErrNoProfile = errors.New("user profile is required")

type Profile struct {
	PersonalInfo PersonalInfo `json:"personal_info" mapstructure:"personal_info"`
	Skills       []string     `json:"skills" mapstructure:"skills"`
	Projects     []Project    `json:"projects" mapstructure:"projects"`
	Work         []Work       `json:"work" mapstructure:"work"`
	Experience   []Work       `json:"-" mapstructure:"experience"`
}

type PersonalInfo struct {
	Name     string `json:"name" mapstructure:"name"`
	Email    string `json:"email,omitempty" mapstructure:"email"`
	Location string `json:"location,omitempty" mapstructure:"location"`
}

// Project is either a structured item or a bare text entry. Bare text decodes
// into Desc with a single fragment.
type Project struct {
	Title string   `json:"title,omitempty" mapstructure:"title"`
	Desc  []string `json:"desc" mapstructure:"desc"`
}

type Work struct {
	Title   string   `json:"title" mapstructure:"title"`
	Company string   `json:"company" mapstructure:"company"`
	Dates   string   `json:"dates,omitempty" mapstructure:"dates"`
	Desc    []string `json:"desc" mapstructure:"desc"`
}

// Decode builds a Profile from a loosely typed record. Mistyped or missing
// fields degrade to empty values; only a nil record is an error.
func Decode(raw map[string]any) (*Profile, error) {
	if raw == nil {
		return nil, ErrNoProfile
	}

	var p Profile
	cfg := &mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(textToProject),
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build profile decoder: %w", err)
	}

	// Decoding errors only describe the fields that could not be converted.
	// Those fields keep their zero value.
	_ = decoder.Decode(sanitize(raw))

	p.normalize()
	return &p, nil
}

// textToProject turns bare strings (or anything that is not a map) into a
// single fragment project.
func textToProject(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(Project{}) || data == nil {
		return data, nil
	}
	if from.Kind() == reflect.Map {
		return data, nil
	}
	return map[string]any{"desc": []any{fmt.Sprintf("%v", data)}}, nil
}

// sanitize drops nil values so weak decoding leaves defaults in place.
func sanitize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func (p *Profile) normalize() {
	p.Skills = compact(p.Skills)

	projects := p.Projects[:0]
	for _, project := range p.Projects {
		project.Title = strings.TrimSpace(project.Title)
		project.Desc = compact(project.Desc)
		if project.Title == "" && len(project.Desc) == 0 {
			continue
		}
		projects = append(projects, project)
	}
	p.Projects = projects

	if len(p.Work) == 0 {
		p.Work = p.Experience
	}
	p.Experience = nil
	for i := range p.Work {
		p.Work[i].Desc = compact(p.Work[i].Desc)
	}
}

// SkillSet returns the explicit skills lowercased and deduplicated.
func (p *Profile) SkillSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Skills))
	for _, skill := range p.Skills {
		if s := strings.ToLower(strings.TrimSpace(skill)); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// Fragments returns every project description fragment in project order.
func (p *Profile) Fragments() []string {
	var out []string
	for _, project := range p.Projects {
		out = append(out, project.Desc...)
	}
	return out
}

// ProjectsText joins the project fragments with single spaces.
func (p *Profile) ProjectsText() string {
	return strings.Join(p.Fragments(), " ")
}

// Text is the composite text used for extraction, inference and embedding:
// "Skills: a, b. Projects: fragment fragment".
func (p *Profile) Text() string {
	return "Skills: " + strings.Join(p.Skills, ", ") + ". Projects: " + p.ProjectsText()
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
