package http

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/pkg/apperror"
)

type memEntries struct {
	mu   sync.Mutex
	rows map[uuid.UUID]entry.Entry
}

func newMemEntries() *memEntries {
	return &memEntries{rows: make(map[uuid.UUID]entry.Entry)}
}

func (r *memEntries) Save(_ context.Context, e *entry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[e.ID] = *e
	return nil
}

func (r *memEntries) Update(_ context.Context, e *entry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.rows[e.ID]; !ok || old.UserID != e.UserID {
		return apperror.NewNotFound("entry", e.ID.String())
	}
	r.rows[e.ID] = *e
	return nil
}

func (r *memEntries) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.rows[id]; !ok || e.UserID != userID {
		return apperror.NewNotFound("entry", id.String())
	}
	delete(r.rows, id)
	return nil
}

func (r *memEntries) FindByID(_ context.Context, id, userID uuid.UUID) (*entry.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok || e.UserID != userID {
		return nil, apperror.NewNotFound("entry", id.String())
	}
	return &e, nil
}

func (r *memEntries) ListBySection(_ context.Context, userID uuid.UUID, sectionID string) ([]*entry.Entry, error) {
	return r.list(func(e entry.Entry) bool { return e.UserID == userID && e.SectionID == sectionID }), nil
}

func (r *memEntries) ListByUser(_ context.Context, userID uuid.UUID) ([]*entry.Entry, error) {
	return r.list(func(e entry.Entry) bool { return e.UserID == userID }), nil
}

func (r *memEntries) list(match func(entry.Entry) bool) []*entry.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entry.Entry
	for _, e := range r.rows {
		if match(e) {
			e := e
			out = append(out, &e)
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

func (r *memEntries) ReplaceSection(_ context.Context, userID uuid.UUID, sectionID string, entries []*entry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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
		c := *e
		c.Position = i
		r.rows[c.ID] = c
	}
	return nil
}

func (r *memEntries) NextPosition(_ context.Context, userID uuid.UUID, sectionID string) (int, error) {
	return len(r.list(func(e entry.Entry) bool { return e.UserID == userID && e.SectionID == sectionID })), nil
}

func (r *memEntries) CountBySection(context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, e := range r.list(func(entry.Entry) bool { return true }) {
		out[e.SectionID]++
	}
	return out, nil
}

type memPages struct {
	mu    sync.Mutex
	pages map[string]string
}

func (c *memPages) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[key]
	return p, ok, nil
}

func (c *memPages) Set(_ context.Context, key, page string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = page
	return nil
}

func (c *memPages) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, key)
	return nil
}
