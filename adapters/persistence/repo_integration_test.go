package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/internal/domain/favorite"
	"github.com/khoahotran/resume-builder/internal/domain/template"
	"github.com/khoahotran/resume-builder/internal/domain/user"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type RepoIntegrationTestSuite struct {
	suite.Suite
	dbPool       *pgxpool.Pool
	pgContainer  *postgres.PostgresContainer
	testLogger   logger.Logger
	entryRepo    entry.Repository
	userRepo     user.Repository
	templateRepo template.Repository
	favoriteRepo favorite.Repository
	testUser     *user.User
}

func (s *RepoIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	s.testLogger = logger.NewNopLogger()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(1*time.Minute),
		),
	)
	if err != nil {
		s.T().Fatalf("Failed to start postgres container: %s", err)
	}
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		s.T().Fatalf("Failed to get connection string: %s", err)
	}

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		s.T().Fatalf("Failed to create migrate instance: %s", err)
	}
	if err := m.Up(); err != nil {
		s.T().Fatalf("Failed to run migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		s.T().Fatalf("Failed to create pgxpool: %s", err)
	}
	s.dbPool = pool

	s.entryRepo = NewPostgresEntryRepo(s.dbPool, s.testLogger)
	s.userRepo = NewPostgresUserRepo(s.dbPool, s.testLogger)
	s.templateRepo = NewPostgresTemplateRepo(s.dbPool, s.testLogger)
	s.favoriteRepo = NewPostgresFavoriteRepo(s.dbPool, s.testLogger)

	now := time.Now().UTC()
	s.testUser = &user.User{
		ID:           uuid.New(),
		Email:        "testuser@example.com",
		PasswordHash: "hashedpassword",
		Role:         user.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Save(ctx, s.testUser); err != nil {
		s.T().Fatalf("Failed to seed user: %s", err)
	}
}

func (s *RepoIntegrationTestSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(context.Background()); err != nil {
			s.T().Fatalf("Failed to terminate postgres container: %s", err)
		}
	}
}

func TestRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	suite.Run(t, new(RepoIntegrationTestSuite))
}

func (s *RepoIntegrationTestSuite) newEntry(sectionID string, pos int, data map[string]any) *entry.Entry {
	now := time.Now().UTC()
	return &entry.Entry{
		ID:        uuid.New(),
		UserID:    s.testUser.ID,
		SectionID: sectionID,
		Position:  pos,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *RepoIntegrationTestSuite) Test_Entry_Save_And_FindByID() {
	ctx := context.Background()

	e := s.newEntry("personal", 0, map[string]any{"firstName": "Ada", "lastName": "Lovelace"})
	s.NoError(s.entryRepo.Save(ctx, e))

	found, err := s.entryRepo.FindByID(ctx, e.ID, s.testUser.ID)
	s.NoError(err)
	s.Equal("Ada", found.Data["firstName"])

	_, err = s.entryRepo.FindByID(ctx, e.ID, uuid.New())
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *RepoIntegrationTestSuite) Test_Entry_ReplaceSectionKeepsOrder() {
	ctx := context.Background()

	s.NoError(s.entryRepo.Save(ctx, s.newEntry("skills", 0, map[string]any{"value": "Go"})))

	replacement := []*entry.Entry{
		s.newEntry("experience", 5, map[string]any{"jobTitle": "Second"}),
		s.newEntry("experience", 9, map[string]any{"jobTitle": "First"}),
	}
	s.NoError(s.entryRepo.ReplaceSection(ctx, s.testUser.ID, "experience", replacement))
	s.NoError(s.entryRepo.ReplaceSection(ctx, s.testUser.ID, "experience", replacement[1:]))

	list, err := s.entryRepo.ListBySection(ctx, s.testUser.ID, "experience")
	s.NoError(err)
	s.Len(list, 1)
	s.Equal("First", list[0].Data["jobTitle"])
	s.Equal(0, list[0].Position)

	next, err := s.entryRepo.NextPosition(ctx, s.testUser.ID, "experience")
	s.NoError(err)
	s.Equal(1, next)

	counts, err := s.entryRepo.CountBySection(ctx)
	s.NoError(err)
	s.Equal(1, counts["skills"])
}

func (s *RepoIntegrationTestSuite) Test_Entry_ReplaceSectionRejectsForeignIDs() {
	ctx := context.Background()

	mine := s.newEntry("education", 0, map[string]any{"degree": "B.Sc"})
	s.NoError(s.entryRepo.ReplaceSection(ctx, s.testUser.ID, "education", []*entry.Entry{mine}))

	now := time.Now().UTC()
	other := &user.User{
		ID: uuid.New(), Email: "mallory@example.com", PasswordHash: "x",
		Role: user.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	s.NoError(s.userRepo.Save(ctx, other))

	stolen := &entry.Entry{ID: mine.ID, UserID: other.ID, SectionID: "education", Data: map[string]any{"degree": "Forged"}}
	err := s.entryRepo.ReplaceSection(ctx, other.ID, "education", []*entry.Entry{stolen})
	s.ErrorIs(err, apperror.ErrConflict)

	moved := s.newEntry("experience", 0, map[string]any{"jobTitle": "Moved"})
	moved.ID = mine.ID
	err = s.entryRepo.ReplaceSection(ctx, s.testUser.ID, "experience", []*entry.Entry{moved})
	s.ErrorIs(err, apperror.ErrConflict)

	found, err := s.entryRepo.FindByID(ctx, mine.ID, s.testUser.ID)
	s.NoError(err)
	s.Equal("education", found.SectionID)
	s.Equal("B.Sc", found.Data["degree"])

	list, err := s.entryRepo.ListBySection(ctx, other.ID, "education")
	s.NoError(err)
	s.Empty(list)
}

func (s *RepoIntegrationTestSuite) Test_User_ListSearch() {
	ctx := context.Background()

	now := time.Now().UTC()
	name := "Grace Hopper"
	other := &user.User{
		ID: uuid.New(), Email: "grace@example.com", Name: &name, PasswordHash: "x",
		Role: user.RoleUser, CreatedAt: now, UpdatedAt: now,
	}
	s.NoError(s.userRepo.Save(ctx, other))

	err := s.userRepo.Save(ctx, &user.User{
		ID: uuid.New(), Email: "grace@example.com", PasswordHash: "x",
		Role: user.RoleUser, CreatedAt: now, UpdatedAt: now,
	})
	s.ErrorIs(err, apperror.ErrConflict)

	users, total, err := s.userRepo.List(ctx, user.ListFilter{Search: "hopper", Limit: 10})
	s.NoError(err)
	s.Equal(1, total)
	s.Len(users, 1)
	s.Equal(other.ID, users[0].ID)
}

func (s *RepoIntegrationTestSuite) Test_Template_FavoritesAndStats() {
	ctx := context.Background()

	now := time.Now().UTC()
	t := &template.Template{
		ID: uuid.New(), Name: "Modern", Category: "tech",
		Customization: map[string]any{"colorScheme": "teal", "fontFamily": "Inter", "layoutStyle": "modern"},
		IsActive:      true, CreatedAt: now, UpdatedAt: now,
	}
	s.NoError(s.templateRepo.Save(ctx, t))

	fav := &favorite.Favorite{UserID: s.testUser.ID, TemplateID: t.ID, CreatedAt: now}
	s.NoError(s.favoriteRepo.Add(ctx, fav))
	s.NoError(s.favoriteRepo.Add(ctx, fav))

	favs, err := s.favoriteRepo.ListByUser(ctx, s.testUser.ID)
	s.NoError(err)
	s.Len(favs, 1)

	stats, err := s.templateRepo.Stats(ctx)
	s.NoError(err)
	s.GreaterOrEqual(stats.Active, 1)
	var count int
	for _, fc := range stats.Favorites {
		if fc.TemplateID == t.ID {
			count = fc.Favorites
		}
	}
	s.Equal(1, count)
}
