package embedding

import (
	"context"
	"math"
	"testing"
)

func TestHashingIsDeterministicAndNormalised(t *testing.T) {
	enc := NewHashing(128)
	texts := []string{
		"Senior Go engineer building Kubernetes operators",
		"Senior Go engineer building Kubernetes operators",
		"Pastry chef for a busy bakery",
	}

	vectors, err := enc.Encode(context.Background(), texts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}

	for i, vec := range vectors {
		if len(vec) != enc.Dimension() {
			t.Fatalf("vector %d has dimension %d", i, len(vec))
		}
		if norm := math.Sqrt(Dot(vec, vec)); math.Abs(norm-1) > 1e-5 {
			t.Fatalf("vector %d is not unit length: %v", i, norm)
		}
	}

	for i := range vectors[0] {
		if vectors[0][i] != vectors[1][i] {
			t.Fatalf("identical text produced different vectors at %d", i)
		}
	}
}

func TestHashingSimilarTextsScoreHigher(t *testing.T) {
	enc := Shared()
	query := enc.EncodeOne("python data engineer with sql and airflow")
	near := enc.EncodeOne("data engineer: python, sql, airflow pipelines")
	far := enc.EncodeOne("retail cashier weekend shifts")

	if Dot(query, near) <= Dot(query, far) {
		t.Fatalf("expected related text to be closer: near=%v far=%v", Dot(query, near), Dot(query, far))
	}
}

func TestHashingEmptyText(t *testing.T) {
	vec := Shared().EncodeOne("   ")
	if Dot(vec, vec) != 0 {
		t.Fatalf("expected zero vector for empty text")
	}
}

func TestHashingRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Shared().Encode(ctx, []string{"go"}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestSharedIsSingleton(t *testing.T) {
	if Shared() != Shared() {
		t.Fatalf("expected the same encoder instance")
	}
	if Shared().Dimension() != DefaultDimension {
		t.Fatalf("unexpected default dimension %d", Shared().Dimension())
	}
}

func TestNormalizeAndDot(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalised vector %v", v)
	}

	zero := Normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Fatalf("zero vector should stay zero")
	}

	if got := Dot([]float32{1, 2, 3}, []float32{1, 1}); got != 3 {
		t.Fatalf("unexpected dot %v", got)
	}
}
