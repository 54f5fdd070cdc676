package leads

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store. When raceOnCreate is set, Create reports a
// duplicate even though FindByThreadID saw nothing, as a lost race would.
type memStore struct {
	mu           sync.Mutex
	leads        map[uuid.UUID]Lead
	raceOnCreate bool
	createErr    error
}

func newMemStore() *memStore {
	return &memStore{leads: make(map[uuid.UUID]Lead)}
}

func (s *memStore) Create(ctx context.Context, lead *Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if s.raceOnCreate {
		return ErrDuplicateLead
	}
	if lead.ThreadID != nil {
		for _, l := range s.leads {
			if l.ThreadID != nil && *l.ThreadID == *lead.ThreadID {
				return ErrDuplicateLead
			}
		}
	}
	lead.ID = uuid.New()
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	s.leads[lead.ID] = *lead
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return &l, nil
}

func (s *memStore) FindByThreadID(ctx context.Context, threadID string) (*Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ThreadID != nil && *l.ThreadID == threadID {
			return &l, nil
		}
	}
	return nil, ErrLeadNotFound
}

func (s *memStore) List(ctx context.Context, f Filter) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Lead{}
	for _, l := range s.leads {
		if f.Label != "" && l.Label != f.Label {
			continue
		}
		if f.Progress != "" && l.Progress != f.Progress {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(l.FullName), q) &&
				!strings.Contains(strings.ToLower(l.Email), q) &&
				!strings.Contains(strings.ToLower(l.Company), q) {
				continue
			}
		}
		if f.StartDate != nil && l.SubmissionDate.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && l.SubmissionDate.After(*f.EndDate) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionDate.After(out[j].SubmissionDate) })
	return out, nil
}

func (s *memStore) Update(ctx context.Context, id uuid.UUID, u UpdateRequest) (*Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	if u.FullName != nil {
		l.FullName = *u.FullName
	}
	if u.Email != nil {
		l.Email = *u.Email
	}
	if u.Label != nil {
		l.Label = *u.Label
	}
	if u.Progress != nil {
		l.Progress = *u.Progress
	}
	s.leads[id] = l
	return &l, nil
}

func (s *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[id]; !ok {
		return ErrLeadNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *memStore) Stats(ctx context.Context, since time.Time, recent int) (*Stats, error) {
	s.mu.Lock()
	total := int64(len(s.leads))
	s.mu.Unlock()
	return &Stats{Total: total}, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

// recordingNotifier remembers every lead it was told about.
type recordingNotifier struct {
	mu    sync.Mutex
	leads []Lead
}

func (n *recordingNotifier) NotifyNewLead(lead Lead) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, lead)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.leads)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
