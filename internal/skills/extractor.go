package skills

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenPattern keeps a leading dot (".net") and emits "/" as its own token so
// "react/node" yields two skills while "ci/cd" still matches as one phrase.
var tokenPattern = regexp.MustCompile(`\.?[a-z0-9][a-z0-9+#.\-]*[a-z0-9+#]|\.?[a-z0-9]|/`)

type pattern struct {
	tokens []string
	text   string
	label  string
}

// Extractor matches model patterns against text. It is immutable after
// construction and safe for concurrent use.
type Extractor struct {
	model *Model
	// first token -> patterns starting with it, longest first
	byFirst map[string][]pattern
}

var (
	defaultOnce      sync.Once
	defaultExtractor *Extractor
	defaultErr       error
)

// Default returns the process wide extractor built from the embedded model.
func Default() (*Extractor, error) {
	defaultOnce.Do(func() {
		model, err := LoadModel("")
		if err != nil {
			defaultErr = err
			return
		}
		defaultExtractor = New(model)
	})
	return defaultExtractor, defaultErr
}

// Load builds an extractor from a model file, or the shared default when path
// is empty.
func Load(path string) (*Extractor, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}

	model, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	return New(model), nil
}

func New(model *Model) *Extractor {
	e := &Extractor{model: model, byFirst: make(map[string][]pattern)}

	for _, entity := range model.Entities {
		for _, raw := range entity.Patterns {
			text := strings.ToLower(strings.TrimSpace(raw))
			tokens := tokenize(text)
			if len(tokens) == 0 {
				continue
			}
			e.byFirst[tokens[0]] = append(e.byFirst[tokens[0]], pattern{
				tokens: tokens,
				text:   text,
				label:  entity.Label,
			})
		}
	}

	for first, list := range e.byFirst {
		sort.SliceStable(list, func(i, j int) bool { return len(list[i].tokens) > len(list[j].tokens) })
		e.byFirst[first] = list
	}

	return e
}

// Extract returns the lowercase, deduplicated skill mentions found in text,
// sorted for determinism. Empty text yields an empty set.
func (e *Extractor) Extract(text string) []string {
	found := e.ExtractSet(text)
	out := make([]string, 0, len(found))
	for skill := range found {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// ExtractSet is Extract without the ordering step.
func (e *Extractor) ExtractSet(text string) map[string]struct{} {
	found := make(map[string]struct{})
	if e == nil || strings.TrimSpace(text) == "" {
		return found
	}

	tokens := tokenize(fold(text))
	for i := 0; i < len(tokens); {
		match, ok := e.longestAt(tokens, i)
		if !ok && len(tokens[i]) > 1 && tokens[i][0] == '.' {
			// "...python" is python after an ellipsis
			tokens[i] = tokens[i][1:]
			continue
		}
		if !ok {
			i++
			continue
		}
		if isSkillLabel(match.label) {
			found[match.text] = struct{}{}
		}
		i += len(match.tokens)
	}

	return found
}

func (e *Extractor) longestAt(tokens []string, i int) (pattern, bool) {
	for _, candidate := range e.byFirst[tokens[i]] {
		if i+len(candidate.tokens) > len(tokens) {
			continue
		}
		matched := true
		for k, tok := range candidate.tokens {
			if tokens[i+k] != tok {
				matched = false
				break
			}
		}
		if matched {
			return candidate, true
		}
	}
	return pattern{}, false
}

// ModelName reports the name and version of the loaded model.
func (e *Extractor) ModelName() (string, int) {
	return e.model.Name, e.model.Version
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func fold(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}
