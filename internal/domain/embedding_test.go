package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestInstructionEmbedder_PrependsQueryPrefix(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, "query: ")

	result, err := emb.Embed(context.Background(), "rainy office romance")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "query: rainy office romance" {
		t.Errorf("expected prefixed text, got %q", inner.got)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected 3-element vector, got %d", len(result.Embedding))
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "query: ")

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_EmptyInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}}}
	emb := NewInstructionEmbedder(inner, "")

	if _, err := emb.Embed(context.Background(), "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "test" {
		t.Errorf("expected 'test', got %q", inner.got)
	}
}

func TestConfigurationError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewConfigurationError("vector index", cause)

	if !errors.Is(err, ErrUnavailable) {
		t.Error("expected ErrUnavailable in chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if err.Error() != "vector index unavailable: dial tcp: refused" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

type healthyStub struct {
	stubEmbedder
	err error
}

func (h *healthyStub) HealthCheck(context.Context) error { return h.err }

func TestInstructionEmbedder_HealthCheckPassthrough(t *testing.T) {
	down := errors.New("down")
	emb := NewInstructionEmbedder(&healthyStub{err: down}, "query: ")
	if err := emb.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected inner health error, got %v", err)
	}

	plain := NewInstructionEmbedder(&stubEmbedder{}, "query: ")
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for embedder without health check, got %v", err)
	}
}
