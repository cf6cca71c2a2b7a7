package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/khoahotran/resume-builder/internal/domain/section"
)

// SyncStatus tracks whether the server has accepted the latest local value of a section.
type SyncStatus string

const (
	StatusPending   SyncStatus = "pending"
	StatusCommitted SyncStatus = "committed"
	StatusFailed    SyncStatus = "failed"
	// StatusDirty marks a section with edits that were never saved.
	StatusDirty SyncStatus = "dirty"
)

type SectionState struct {
	Status    SyncStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ChangeKind says what happened to a section.
type ChangeKind string

const (
	ChangeSet    ChangeKind = "set"
	ChangeRemove ChangeKind = "remove"
	ChangeStatus ChangeKind = "status"
	ChangeMerge  ChangeKind = "merge"
)

type Change struct {
	UserID    string
	SectionID string
	Kind      ChangeKind
	Status    SyncStatus
}

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrInvalidValue   = errors.New("invalid section value")
)

type snapshot struct {
	Data    map[string]json.RawMessage `json:"data"`
	Status  map[string]SectionState    `json:"status,omitempty"`
	SavedAt time.Time                  `json:"savedAt"`
}

// Store is the resume document of one user: section id -> canonical value.
// An absent key means the section has not been filled yet.
//
// Every section has a working value, which Set edits and the preview shows,
// and a saved value, which Checkpoint takes from the working one. Save writes
// only saved values to the cache and Revert goes back to them.
type Store struct {
	userID string
	reg    *section.Registry
	cache  Cache
	now    func() time.Time

	mu      sync.RWMutex
	data    map[string]any
	saved   map[string]any
	dirty   map[string]time.Time
	status  map[string]SectionState
	custom  TemplateCustomization
	savedAt time.Time

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

func NewStore(userID string, reg *section.Registry, cache Cache) *Store {
	return &Store{
		userID: userID,
		reg:    reg,
		cache:  cache,
		now:    time.Now,
		data:   make(map[string]any),
		saved:  make(map[string]any),
		dirty:  make(map[string]time.Time),
		status: make(map[string]SectionState),
		custom: DefaultCustomization(),
		subs:   make(map[int]func(Change)),
	}
}

func (s *Store) UserID() string { return s.userID }

func (s *Store) Registry() *section.Registry { return s.reg }

// Load replaces the in-memory document with the cached one. A cache miss
// leaves an empty document. Sections the registry no longer knows are dropped.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.readSnapshot(ctx)
	if err != nil {
		return err
	}
	custom, err := s.readCustomization(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = make(map[string]any, len(snap.data))
	for id, v := range snap.data {
		s.data[id] = section.Clone(v)
	}
	s.saved = snap.data
	s.dirty = make(map[string]time.Time)
	s.status = snap.status
	s.custom = custom
	s.savedAt = snap.savedAt
	s.mu.Unlock()
	return nil
}

// Refresh picks up a document another process saved after this store last
// loaded or saved. Sections with unsaved edits keep their working value.
// It reports whether anything was reloaded.
func (s *Store) Refresh(ctx context.Context) (bool, error) {
	snap, err := s.readSnapshot(ctx)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	stale := snap.savedAt.After(s.savedAt)
	s.mu.RUnlock()
	if !stale {
		return false, nil
	}
	custom, err := s.readCustomization(ctx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if !snap.savedAt.After(s.savedAt) {
		s.mu.Unlock()
		return false, nil
	}
	for id := range s.saved {
		if _, ok := snap.data[id]; !ok {
			if _, edited := s.dirty[id]; !edited {
				delete(s.data, id)
			}
		}
	}
	for id, v := range snap.data {
		if _, edited := s.dirty[id]; !edited {
			s.data[id] = section.Clone(v)
		}
	}
	s.saved = snap.data
	s.status = snap.status
	s.custom = custom
	s.savedAt = snap.savedAt
	s.mu.Unlock()

	s.publish(Change{UserID: s.userID, Kind: ChangeMerge})
	return true, nil
}

type loaded struct {
	data    map[string]any
	status  map[string]SectionState
	savedAt time.Time
}

func (s *Store) readSnapshot(ctx context.Context) (loaded, error) {
	out := loaded{data: make(map[string]any), status: make(map[string]SectionState)}

	raw, err := s.cache.Get(ctx, DataKey(s.userID))
	switch {
	case errors.Is(err, ErrCacheMiss):
		return out, nil
	case err != nil:
		return out, fmt.Errorf("load resume data: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return out, fmt.Errorf("decode resume data: %w", err)
	}
	for id, msg := range snap.Data {
		schema, ok := s.reg.GetSectionConfig(id)
		if !ok {
			continue
		}
		v, err := decodeValue(schema, msg)
		if err != nil {
			return out, fmt.Errorf("decode section %s: %w", id, err)
		}
		out.data[id] = v
	}
	for id, st := range snap.Status {
		if s.reg.Has(id) {
			out.status[id] = st
		}
	}
	out.savedAt = snap.SavedAt
	return out, nil
}

func (s *Store) readCustomization(ctx context.Context) (TemplateCustomization, error) {
	custom := DefaultCustomization()
	raw, err := s.cache.Get(ctx, CustomizationKey(s.userID))
	switch {
	case errors.Is(err, ErrCacheMiss):
		return custom, nil
	case err != nil:
		return custom, fmt.Errorf("load customization: %w", err)
	}
	if err := json.Unmarshal(raw, &custom); err != nil {
		return custom, fmt.Errorf("decode customization: %w", err)
	}
	return custom.WithDefaults(), nil
}

func decodeValue(schema section.SectionSchema, msg json.RawMessage) (any, error) {
	var raw any
	if err := json.Unmarshal(msg, &raw); err != nil {
		return nil, err
	}
	return section.Normalize(schema, raw)
}

// Save overwrites the cached document with the saved value of every
// section. Unsaved edits stay in memory only.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	snap := snapshot{
		Data:    make(map[string]json.RawMessage, len(s.saved)),
		Status:  make(map[string]SectionState, len(s.status)),
		SavedAt: s.now().UTC(),
	}
	for id, v := range s.saved {
		b, err := json.Marshal(v)
		if err != nil {
			s.mu.RUnlock()
			return fmt.Errorf("encode section %s: %w", id, err)
		}
		snap.Data[id] = b
	}
	for id, st := range s.status {
		snap.Status[id] = st
	}
	s.mu.RUnlock()

	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode resume data: %w", err)
	}
	if err := s.cache.Set(ctx, DataKey(s.userID), b); err != nil {
		return fmt.Errorf("save resume data: %w", err)
	}

	s.mu.Lock()
	if snap.SavedAt.After(s.savedAt) {
		s.savedAt = snap.SavedAt
	}
	s.mu.Unlock()
	return nil
}

// Checkpoint makes the working value of a section its saved value. A section
// without a working value is saved as absent.
func (s *Store) Checkpoint(sectionID string) error {
	if !s.reg.Has(sectionID) {
		return fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	s.mu.Lock()
	if v, ok := s.data[sectionID]; ok {
		s.saved[sectionID] = section.Clone(v)
	} else {
		delete(s.saved, sectionID)
	}
	delete(s.dirty, sectionID)
	s.mu.Unlock()
	return nil
}

// Revert restores one section to its last saved value, dropping unsaved
// edits. A section that was never saved becomes absent again.
func (s *Store) Revert(sectionID string) error {
	if !s.reg.Has(sectionID) {
		return fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}

	s.mu.Lock()
	v, ok := s.saved[sectionID]
	if ok {
		s.data[sectionID] = section.Clone(v)
	} else {
		delete(s.data, sectionID)
	}
	delete(s.dirty, sectionID)
	s.mu.Unlock()

	kind := ChangeSet
	if !ok {
		kind = ChangeRemove
	}
	s.publish(Change{UserID: s.userID, SectionID: sectionID, Kind: kind})
	return nil
}

// Saved returns a copy of the saved value of a section and whether it was
// ever saved.
func (s *Store) Saved(sectionID string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.saved[sectionID]
	if !ok {
		return nil, false
	}
	return section.Clone(v), true
}

// SavedValue returns the saved value of a section, or the schema default
// when it was never saved.
func (s *Store) SavedValue(sectionID string) (any, error) {
	schema, ok := s.reg.GetSectionConfig(sectionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	if v, ok := s.Saved(sectionID); ok {
		return v, nil
	}
	return section.DefaultValue(schema), nil
}

// ReplaceSaved swaps the saved value of a section, for example once item ids
// are assigned. The working value follows unless it holds unsaved edits.
func (s *Store) ReplaceSaved(sectionID string, value any) error {
	schema, ok := s.reg.GetSectionConfig(sectionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	v, err := section.Normalize(schema, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	s.mu.Lock()
	s.saved[sectionID] = v
	if _, edited := s.dirty[sectionID]; !edited {
		s.data[sectionID] = section.Clone(v)
	}
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the section value and whether it has been filled.
func (s *Store) Get(sectionID string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[sectionID]
	if !ok {
		return nil, false
	}
	return section.Clone(v), true
}

// Value returns the section value, or the schema default when it is absent.
func (s *Store) Value(sectionID string) (any, error) {
	schema, ok := s.reg.GetSectionConfig(sectionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	if v, ok := s.Get(sectionID); ok {
		return v, nil
	}
	return section.DefaultValue(schema), nil
}

// Set normalizes value against the section schema and makes it the working
// value. The section counts as dirty until Checkpoint or Revert.
func (s *Store) Set(sectionID string, value any) error {
	schema, ok := s.reg.GetSectionConfig(sectionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, sectionID)
	}
	v, err := section.Normalize(schema, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	s.mu.Lock()
	s.data[sectionID] = v
	s.dirty[sectionID] = s.now().UTC()
	s.mu.Unlock()

	s.publish(Change{UserID: s.userID, SectionID: sectionID, Kind: ChangeSet})
	return nil
}

// Remove forgets a section, returning it to the "not filled" state.
func (s *Store) Remove(sectionID string) {
	s.mu.Lock()
	_, existed := s.data[sectionID]
	delete(s.data, sectionID)
	delete(s.saved, sectionID)
	delete(s.dirty, sectionID)
	delete(s.status, sectionID)
	s.mu.Unlock()

	if existed {
		s.publish(Change{UserID: s.userID, SectionID: sectionID, Kind: ChangeRemove})
	}
}

// Snapshot returns a deep copy of every filled section, unsaved edits included.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = section.Clone(v)
	}
	return out
}

// Merge copies server data into the store as saved values. Sections the
// server has not accepted yet (pending or failed) are skipped, and sections
// with unsaved edits keep their working value.
// It returns the ids that were taken from the server, sorted.
func (s *Store) Merge(server map[string]any) ([]string, error) {
	normalized := make(map[string]any, len(server))
	for id, raw := range server {
		schema, ok := s.reg.GetSectionConfig(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, id)
		}
		v, err := section.Normalize(schema, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, id, err)
		}
		normalized[id] = v
	}

	var merged []string
	s.mu.Lock()
	for id, v := range normalized {
		if st, ok := s.status[id]; ok && st.Status != StatusCommitted {
			continue
		}
		s.saved[id] = v
		if _, edited := s.dirty[id]; !edited {
			s.data[id] = section.Clone(v)
		}
		s.status[id] = SectionState{Status: StatusCommitted, UpdatedAt: s.now().UTC()}
		merged = append(merged, id)
	}
	s.mu.Unlock()

	sort.Strings(merged)
	for _, id := range merged {
		s.publish(Change{UserID: s.userID, SectionID: id, Kind: ChangeMerge, Status: StatusCommitted})
	}
	return merged, nil
}

func (s *Store) MarkPending(sectionID string) {
	s.setStatus(sectionID, StatusPending, "")
}

func (s *Store) MarkCommitted(sectionID string) {
	s.setStatus(sectionID, StatusCommitted, "")
}

func (s *Store) MarkFailed(sectionID string, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	s.setStatus(sectionID, StatusFailed, msg)
}

func (s *Store) setStatus(sectionID string, st SyncStatus, msg string) {
	s.mu.Lock()
	s.status[sectionID] = SectionState{Status: st, Error: msg, UpdatedAt: s.now().UTC()}
	s.mu.Unlock()
	s.publish(Change{UserID: s.userID, SectionID: sectionID, Kind: ChangeStatus, Status: st})
}

// Status reports the sync state of a section. Unsaved edits win over the
// state of the saved value.
func (s *Store) Status(sectionID string) (SectionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if at, ok := s.dirty[sectionID]; ok {
		return SectionState{Status: StatusDirty, UpdatedAt: at}, true
	}
	st, ok := s.status[sectionID]
	return st, ok
}

func (s *Store) Statuses() map[string]SectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]SectionState, len(s.status)+len(s.dirty))
	for k, v := range s.status {
		out[k] = v
	}
	for k, at := range s.dirty {
		out[k] = SectionState{Status: StatusDirty, UpdatedAt: at}
	}
	return out
}

func (s *Store) Customization() TemplateCustomization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom
}

// SetCustomization validates and persists the preview customization right away.
func (s *Store) SetCustomization(ctx context.Context, c TemplateCustomization) error {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode customization: %w", err)
	}
	if err := s.cache.Set(ctx, CustomizationKey(s.userID), b); err != nil {
		return fmt.Errorf("save customization: %w", err)
	}
	s.mu.Lock()
	s.custom = c
	s.mu.Unlock()
	return nil
}

// Subscribe registers fn for every change and returns a function that removes it.
// fn runs synchronously on the goroutine that made the change.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
