// Package tailoring rewrites a profile towards a specific job posting.
package tailoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/spigell/jobmatch/internal/jobs"
)

var (
	techPattern = regexp.MustCompile(`(?i)\b(Python|TensorFlow|React|SQL|Machine Learning|NLP|AI|ETL|Linux|Docker|AWS|Keras|PyTorch|Data Analysis|Pandas|NumPy|Go|Kubernetes)\b`)
	verbPattern = regexp.MustCompile(`(?i)\b(Develop|Build|Design|Optimi[sz]e|Analy[sz]e|Lead|Implement|Deploy|Integrate|Automate|Evaluate|Train|Research)\w*\b`)
)

// Keywords are the terms a tailored resume should echo.
type Keywords struct {
	Skills []string `json:"skills_required"`
	Verbs  []string `json:"verbs_required"`
	Text   string   `json:"raw_text"`
}

// ExtractJobKeywords collects declared skills, known technologies and action
// verbs from a posting. Both lists are lowercase, deduplicated and sorted.
func ExtractJobKeywords(job *jobs.Posting) Keywords {
	if job == nil {
		return Keywords{Skills: []string{}, Verbs: []string{}}
	}

	text := job.Text()

	skills := append([]string{}, job.Skills...)
	skills = append(skills, techPattern.FindAllString(text, -1)...)

	return Keywords{
		Skills: lowerUnique(skills),
		Verbs:  lowerUnique(verbPattern.FindAllString(text, -1)),
		Text:   text,
	}
}

func lowerUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
