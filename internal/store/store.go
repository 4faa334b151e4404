package store

import (
	"sync"

	"threadcurator/internal/domain"
)

// CandidateStore holds the working set of candidates for a single run. It
// enforces per-run deduplication on admission and the monotonic stage
// invariant on every transition. Listing preserves admission order, which is
// the tie-break order for ranking.
type CandidateStore struct {
	mu    sync.Mutex
	byID  map[string]int
	items []domain.Candidate
}

// New returns an empty store.
func New() *CandidateStore {
	return &CandidateStore{byID: map[string]int{}}
}

// Add admits a candidate at stage Raw. A second candidate with the same ID is
// rejected with ErrDuplicateCandidate.
func (s *CandidateStore) Add(c domain.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[c.ID]; ok {
		return domain.ErrDuplicateCandidate
	}

	c.Stage = domain.StageRaw
	s.byID[c.ID] = len(s.items)
	s.items = append(s.items, c)
	return nil
}

// Len reports how many candidates were admitted this run.
func (s *CandidateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns a copy of the candidate with the given ID.
func (s *CandidateStore) Get(id string) (domain.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return domain.Candidate{}, domain.ErrUnknownCandidate
	}
	return s.items[idx], nil
}

// Extra carries stage-specific data applied atomically with a transition.
type Extra struct {
	Score      *float64
	FullText   string
	FailReason domain.FailReason
	Rationale  string
}

// SetStage advances a candidate to the given stage, applying any extras. It
// fails with *domain.InvalidTransitionError when the target is not a direct
// successor of the current stage or the candidate is already terminal.
func (s *CandidateStore) SetStage(id string, stage domain.Stage, extra Extra) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return domain.ErrUnknownCandidate
	}

	c := &s.items[idx]
	if !c.Stage.CanAdvance(stage) {
		return &domain.InvalidTransitionError{CandidateID: id, From: c.Stage, To: stage}
	}

	c.Stage = stage
	if extra.Score != nil {
		c.Score = *extra.Score
	}
	if extra.FullText != "" {
		c.FullText = extra.FullText
	}
	if extra.FailReason != "" {
		c.FailReason = extra.FailReason
	}
	if extra.Rationale != "" {
		c.Rationale = extra.Rationale
	}
	return nil
}

// ListByStage returns copies of candidates currently at the given stage, in
// original admission order. The result is never re-sorted.
func (s *CandidateStore) ListByStage(stage domain.Stage) []domain.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Candidate
	for _, c := range s.items {
		if c.Stage == stage {
			out = append(out, c)
		}
	}
	return out
}

// CountByStage tallies candidates per stage.
func (s *CandidateStore) CountByStage() map[domain.Stage]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[domain.Stage]int{}
	for _, c := range s.items {
		counts[c.Stage]++
	}
	return counts
}
