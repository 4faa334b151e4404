package store

import (
	"errors"
	"testing"

	"threadcurator/internal/domain"
)

func admit(t *testing.T, s *CandidateStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.Add(domain.Candidate{ID: id, Title: "post " + id}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	t.Parallel()

	s := New()
	admit(t, s, "a")

	err := s.Add(domain.Candidate{ID: "a"})
	if !errors.Is(err, domain.ErrDuplicateCandidate) {
		t.Fatalf("expected ErrDuplicateCandidate, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 candidate, got %d", s.Len())
	}
}

func TestSetStageFollowsSuccessors(t *testing.T) {
	t.Parallel()

	s := New()
	admit(t, s, "a")

	score := 42.0
	steps := []struct {
		stage domain.Stage
		extra Extra
	}{
		{domain.StageScored, Extra{Score: &score}},
		{domain.StageExtracted, Extra{FullText: "body"}},
		{domain.StageGenerated, Extra{}},
		{domain.StageJudged, Extra{}},
		{domain.StageApproved, Extra{}},
	}

	for _, step := range steps {
		if err := s.SetStage("a", step.stage, step.extra); err != nil {
			t.Fatalf("advance to %s: %v", step.stage, err)
		}
	}

	c, err := s.Get("a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Stage != domain.StageApproved {
		t.Fatalf("expected approved, got %s", c.Stage)
	}
	if c.Score != 42 {
		t.Fatalf("expected score 42, got %v", c.Score)
	}
	if c.FullText != "body" {
		t.Fatalf("expected full text set, got %q", c.FullText)
	}
}

func TestSetStageRejectsSkippedStage(t *testing.T) {
	t.Parallel()

	s := New()
	admit(t, s, "a")

	err := s.SetStage("a", domain.StageExtracted, Extra{})
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != domain.StageRaw || invalid.To != domain.StageExtracted {
		t.Fatalf("unexpected transition recorded: %s -> %s", invalid.From, invalid.To)
	}
}

func TestSetStageRejectsLeavingTerminal(t *testing.T) {
	t.Parallel()

	s := New()
	admit(t, s, "a")

	if err := s.SetStage("a", domain.StageFailed, Extra{FailReason: domain.ReasonScoringFailed}); err != nil {
		t.Fatalf("fail candidate: %v", err)
	}

	err := s.SetStage("a", domain.StageScored, Extra{})
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError from terminal stage, got %v", err)
	}
}

func TestFailedReachableFromAnyNonTerminal(t *testing.T) {
	t.Parallel()

	score := 10.0
	paths := [][]struct {
		stage domain.Stage
		extra Extra
	}{
		{},
		{{domain.StageScored, Extra{Score: &score}}},
		{{domain.StageScored, Extra{Score: &score}}, {domain.StageExtracted, Extra{FullText: "x"}}},
	}

	for _, path := range paths {
		s := New()
		admit(t, s, "a")
		for _, step := range path {
			if err := s.SetStage("a", step.stage, step.extra); err != nil {
				t.Fatalf("advance to %s: %v", step.stage, err)
			}
		}
		if err := s.SetStage("a", domain.StageFailed, Extra{FailReason: domain.ReasonExtractionFailed}); err != nil {
			t.Fatalf("fail after %d steps: %v", len(path), err)
		}
	}
}

func TestListByStageKeepsAdmissionOrder(t *testing.T) {
	t.Parallel()

	s := New()
	admit(t, s, "c", "a", "b")

	raw := s.ListByStage(domain.StageRaw)
	if len(raw) != 3 {
		t.Fatalf("expected 3 raw candidates, got %d", len(raw))
	}
	for i, want := range []string{"c", "a", "b"} {
		if raw[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, raw[i].ID)
		}
	}
}

func TestCountByStage(t *testing.T) {
	t.Parallel()

	s := New()
	admit(t, s, "a", "b", "c")

	score := 1.0
	if err := s.SetStage("a", domain.StageScored, Extra{Score: &score}); err != nil {
		t.Fatalf("score a: %v", err)
	}
	if err := s.SetStage("b", domain.StageFailed, Extra{FailReason: domain.ReasonScoringFailed}); err != nil {
		t.Fatalf("fail b: %v", err)
	}

	counts := s.CountByStage()
	if counts[domain.StageRaw] != 1 || counts[domain.StageScored] != 1 || counts[domain.StageFailed] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
