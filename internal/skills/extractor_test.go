package skills

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestExtractFindsLongestPhrases(t *testing.T) {
	ext, err := Default()
	if err != nil {
		t.Fatalf("load default model: %v", err)
	}

	got := ext.Extract("Senior engineer: Machine Learning with PyTorch, Spring Boot services on AWS.")
	want := []string{"aws", "machine learning", "pytorch", "spring boot"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected skills: got %v want %v", got, want)
	}
}

func TestExtractIgnoresNonSkillLabels(t *testing.T) {
	ext, err := Default()
	if err != nil {
		t.Fatalf("load default model: %v", err)
	}

	got := ext.Extract("Senior lead with a masters degree")
	if len(got) != 0 {
		t.Fatalf("expected no skills, got %v", got)
	}
}

func TestExtractFoldsAccentsAndCase(t *testing.T) {
	ext, err := Default()
	if err != nil {
		t.Fatalf("load default model: %v", err)
	}

	got := ext.Extract("PYTHON, Pythön and pandas. Node.js; C++ too.")
	want := []string{"c++", "node.js", "pandas", "python"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected skills: got %v want %v", got, want)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	ext, err := Default()
	if err != nil {
		t.Fatalf("load default model: %v", err)
	}

	for _, text := range []string{"", "   ", "\n\t"} {
		if got := ext.Extract(text); len(got) != 0 {
			t.Fatalf("expected empty set for %q, got %v", text, got)
		}
	}

	var nilExt *Extractor
	if got := nilExt.Extract("python"); len(got) != 0 {
		t.Fatalf("nil extractor should find nothing, got %v", got)
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Extractor, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Default()
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("expected the same extractor instance")
		}
	}
}

func TestLoadCustomModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	model := `name: custom
version: 1
entities:
  - label: hard_skill
    patterns: ["zig", "event sourcing"]
  - label: TOOL
    patterns: ["vim"]
`
	if err := os.WriteFile(path, []byte(model), 0o600); err != nil {
		t.Fatalf("write model: %v", err)
	}

	ext, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	got := ext.Extract("Zig, vim and Event Sourcing")
	want := []string{"event sourcing", "zig"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected skills: got %v want %v", got, want)
	}

	name, version := ext.ModelName()
	if name != "custom" || version != 1 {
		t.Fatalf("unexpected model identity %s/%d", name, version)
	}
}

func TestParseModelRequiresSkillPatterns(t *testing.T) {
	if _, err := ParseModel([]byte("name: empty\nentities:\n  - label: ORG\n    patterns: [acme]\n")); err == nil {
		t.Fatalf("expected error for model without skill patterns")
	}
	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing model file")
	}
}

func TestExtractDotNetNeedsTheDot(t *testing.T) {
	ext, err := Default()
	if err != nil {
		t.Fatalf("load default model: %v", err)
	}

	if got := ext.Extract("Barista wanted: competitive net salary, strong safety net and a friendly team."); len(got) != 0 {
		t.Fatalf("expected no skills, got %v", got)
	}

	got := ext.Extract("Services on .NET and ASP.NET, scripts in ...Python")
	want := []string{".net", "asp.net", "python"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected skills: got %v want %v", got, want)
	}
}

func TestExtractSplitsOnSlash(t *testing.T) {
	ext, err := Default()
	if err != nil {
		t.Fatalf("load default model: %v", err)
	}

	got := ext.Extract("We write Go services with React/Node frontends on AWS/GCP and own the CI/CD pipeline.")
	want := []string{"aws", "ci/cd", "gcp", "go", "node", "react"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected skills: got %v want %v", got, want)
	}
}
