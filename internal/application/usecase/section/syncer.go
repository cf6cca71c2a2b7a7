package section

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
	"github.com/khoahotran/resume-builder/pkg/metrics"
)

var tracer = otel.Tracer("section_usecase")

// PublicPageKey is the page cache key of a user's public resume.
func PublicPageKey(userID uuid.UUID) string {
	return "resume:" + userID.String()
}

// Syncer moves section values between the resume store and Postgres.
type Syncer struct {
	reg       *section.Registry
	entryRepo entry.Repository
	pages     service.PageCache
	logger    logger.Logger
	now       func() time.Time
}

func NewSyncer(reg *section.Registry, repo entry.Repository, pages service.PageCache, log logger.Logger) *Syncer {
	return &Syncer{reg: reg, entryRepo: repo, pages: pages, logger: log, now: time.Now}
}

// Document reads every persisted section of a user.
func (s *Syncer) Document(ctx context.Context, userID uuid.UUID) (map[string]any, error) {
	entries, err := s.entryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	bySection := make(map[string][]*entry.Entry)
	for _, e := range entries {
		bySection[e.SectionID] = append(bySection[e.SectionID], e)
	}

	doc := make(map[string]any, len(bySection))
	for id, rows := range bySection {
		schema, ok := s.reg.GetSectionConfig(id)
		if !ok {
			s.logger.Warn("Skipping entries of unknown section", zap.String("section_id", id), zap.String("user_id", userID.String()))
			continue
		}
		v, err := fromEntries(schema, rows)
		if err != nil {
			s.logger.Warn("Skipping undecodable section", zap.String("section_id", id), zap.Error(err))
			continue
		}
		doc[id] = v
	}
	return doc, nil
}

// Hydrate merges the persisted document into a freshly loaded store. It is
// the manager's loader.
func (s *Syncer) Hydrate(ctx context.Context, st *resume.Store) error {
	userID, err := uuid.Parse(st.UserID())
	if err != nil {
		return apperror.NewInvalidInput("invalid user id", err)
	}
	doc, err := s.Document(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := st.Merge(doc); err != nil {
		return apperror.NewInternal("failed to merge persisted resume", err)
	}
	return nil
}

// Push writes one section of the store to Postgres and records the outcome
// as the section's sync status. The store is saved to the cache either way.
func (s *Syncer) Push(ctx context.Context, st *resume.Store, sectionID string) error {
	ctx, span := tracer.Start(ctx, "Syncer.Push")
	defer span.End()

	l := s.logger.With(zap.String("user_id", st.UserID()), zap.String("section_id", sectionID))

	err := s.push(ctx, st, sectionID)
	if err != nil {
		span.RecordError(err)
		l.Error("Failed to persist section", err)
		st.MarkFailed(sectionID, err)
		metrics.SectionSaves.WithLabelValues(sectionID, string(resume.StatusFailed)).Inc()
	} else {
		st.MarkCommitted(sectionID)
		metrics.SectionSaves.WithLabelValues(sectionID, string(resume.StatusCommitted)).Inc()
	}

	if saveErr := st.Save(ctx); saveErr != nil {
		l.Error("Failed to save resume cache after sync", saveErr)
	}
	return err
}

func (s *Syncer) push(ctx context.Context, st *resume.Store, sectionID string) error {
	schema, ok := s.reg.GetSectionConfig(sectionID)
	if !ok {
		return apperror.NewNotFound("section", sectionID)
	}
	userID, err := uuid.Parse(st.UserID())
	if err != nil {
		return apperror.NewInvalidInput("invalid user id", err)
	}

	value, err := st.SavedValue(sectionID)
	if err != nil {
		return apperror.NewInternal("failed to read section from store", err)
	}
	if schema.IsList() {
		value, err = s.ownedIDs(ctx, userID, schema, value)
		if err != nil {
			return err
		}
		if err := st.ReplaceSaved(sectionID, value); err != nil {
			return apperror.NewInternal("failed to update item ids", err)
		}
	}

	if err := s.Write(ctx, userID, schema, value); err != nil {
		return err
	}
	s.InvalidatePublic(ctx, userID)
	return nil
}

// ownedIDs keeps the ids of list items that are already rows of this user
// and section. Every other item, and any repeat of an id, gets a fresh id.
func (s *Syncer) ownedIDs(ctx context.Context, userID uuid.UUID, schema section.SectionSchema, value any) (any, error) {
	items, ok := value.([]section.Item)
	if !ok {
		return value, nil
	}
	rows, err := s.entryRepo.ListBySection(ctx, userID, schema.ID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(rows))
	for _, r := range rows {
		owned[r.ID.String()] = true
	}

	seen := make(map[string]bool, len(items))
	out := make([]section.Item, len(items))
	for i, it := range items {
		if !owned[it.ID()] || seen[it.ID()] {
			it = section.Clone(it).(section.Item)
			it[section.ItemIDKey] = uuid.NewString()
		}
		seen[it.ID()] = true
		out[i] = it
	}
	return out, nil
}

// Write replaces the persisted content of one section with value.
func (s *Syncer) Write(ctx context.Context, userID uuid.UUID, schema section.SectionSchema, value any) error {
	entries, err := toEntries(schema, userID, value, s.now().UTC())
	if err != nil {
		return apperror.NewInvalidInput("section value cannot be stored", err)
	}

	if !schema.IsList() {
		existing, err := s.entryRepo.ListBySection(ctx, userID, schema.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			entries[0].ID = existing[0].ID
		}
	}
	return s.entryRepo.ReplaceSection(ctx, userID, schema.ID, entries)
}

func (s *Syncer) InvalidatePublic(ctx context.Context, userID uuid.UUID) {
	if s.pages == nil {
		return
	}
	if err := s.pages.Delete(ctx, PublicPageKey(userID)); err != nil {
		s.logger.Warn("Failed to invalidate public resume cache", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
