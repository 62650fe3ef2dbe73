package services_test

import (
	"context"
	"testing"

	"audioextract/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobIndex(ctx, 2)
	ctx = services.WithStage(ctx, "probing")
	ctx = services.WithRunID(ctx, "run-123")

	if idx, ok := services.JobIndexFromContext(ctx); !ok || idx != 2 {
		t.Fatalf("unexpected job index: %v %v", idx, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "probing" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.JobIndexFromContext(ctx); ok {
		t.Fatal("expected no job index value")
	}
}
