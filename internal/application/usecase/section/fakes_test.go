package section

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/pkg/apperror"
)

var errDBDown = errors.New("db down")

type memEntryRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*entry.Entry
	failing bool
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{rows: make(map[uuid.UUID]*entry.Entry)}
}

func (r *memEntryRepo) setFailing(v bool) {
	r.mu.Lock()
	r.failing = v
	r.mu.Unlock()
}

func copyEntry(e *entry.Entry) *entry.Entry {
	c := *e
	c.Data = make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		c.Data[k] = v
	}
	return &c
}

func (r *memEntryRepo) Save(_ context.Context, e *entry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errDBDown
	}
	r.rows[e.ID] = copyEntry(e)
	return nil
}

func (r *memEntryRepo) Update(_ context.Context, e *entry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errDBDown
	}
	if old, ok := r.rows[e.ID]; !ok || old.UserID != e.UserID {
		return apperror.NewNotFound("entry", e.ID.String())
	}
	r.rows[e.ID] = copyEntry(e)
	return nil
}

func (r *memEntryRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rows[id]; !ok || e.UserID != userID {
		return apperror.NewNotFound("entry", id.String())
	}
	delete(r.rows, id)
	return nil
}

func (r *memEntryRepo) FindByID(_ context.Context, id, userID uuid.UUID) (*entry.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok || e.UserID != userID {
		return nil, apperror.NewNotFound("entry", id.String())
	}
	return copyEntry(e), nil
}

func (r *memEntryRepo) list(match func(*entry.Entry) bool) []*entry.Entry {
	var out []*entry.Entry
	for _, e := range r.rows {
		if match(e) {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		return out[i].Position < out[j].Position
	})
	return out
}

func (r *memEntryRepo) ListBySection(_ context.Context, userID uuid.UUID, sectionID string) ([]*entry.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errDBDown
	}
	return r.list(func(e *entry.Entry) bool { return e.UserID == userID && e.SectionID == sectionID }), nil
}

func (r *memEntryRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entry.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errDBDown
	}
	return r.list(func(e *entry.Entry) bool { return e.UserID == userID }), nil
}

func (r *memEntryRepo) ReplaceSection(_ context.Context, userID uuid.UUID, sectionID string, entries []*entry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errDBDown
	}
	for _, e := range entries {
		if old, ok := r.rows[e.ID]; ok && (old.UserID != userID || old.SectionID != sectionID) {
			return apperror.NewConflict("section entry", "id", e.ID.String())
		}
	}
	for id, e := range r.rows {
		if e.UserID == userID && e.SectionID == sectionID {
			delete(r.rows, id)
		}
	}
	for i, e := range entries {
		c := copyEntry(e)
		c.Position = i
		r.rows[c.ID] = c
	}
	return nil
}

func (r *memEntryRepo) NextPosition(_ context.Context, userID uuid.UUID, sectionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 0
	for _, e := range r.rows {
		if e.UserID == userID && e.SectionID == sectionID && e.Position >= next {
			next = e.Position + 1
		}
	}
	return next, nil
}

func (r *memEntryRepo) CountBySection(context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, e := range r.rows {
		out[e.SectionID]++
	}
	return out, nil
}

type memPageCache struct {
	mu    sync.Mutex
	pages map[string]string
}

func newMemPageCache() *memPageCache {
	return &memPageCache{pages: make(map[string]string)}
}

func (c *memPageCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[key]
	return p, ok, nil
}

func (c *memPageCache) Set(_ context.Context, key, page string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = page
	return nil
}

func (c *memPageCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, key)
	return nil
}
