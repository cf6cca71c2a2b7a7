package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/internal/domain/export"
	"github.com/khoahotran/resume-builder/internal/domain/template"
	"github.com/khoahotran/resume-builder/internal/domain/user"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

// StoreForgetter drops the in-memory resume of a deleted user.
type StoreForgetter interface {
	Forget(userID string)
}

type AdminUseCase struct {
	userRepo     user.Repository
	templateRepo template.Repository
	entryRepo    entry.Repository
	exportRepo   export.Repository
	stores       StoreForgetter
	logger       logger.Logger
}

func NewAdminUseCase(
	ur user.Repository,
	tr template.Repository,
	er entry.Repository,
	xr export.Repository,
	stores StoreForgetter,
	log logger.Logger,
) *AdminUseCase {
	return &AdminUseCase{userRepo: ur, templateRepo: tr, entryRepo: er, exportRepo: xr, stores: stores, logger: log}
}

type ListUsersInput struct {
	Search string
	Page   int
	Limit  int
}

type ListUsersOutput struct {
	Users []*user.User `json:"users"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (uc *AdminUseCase) ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersOutput, error) {
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Page <= 0 {
		in.Page = 1
	}
	users, total, err := uc.userRepo.List(ctx, user.ListFilter{
		Search: in.Search,
		Limit:  in.Limit,
		Offset: (in.Page - 1) * in.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &ListUsersOutput{Users: users, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// DeleteUser removes an account and, through foreign keys, its resume.
// Admins cannot delete themselves.
func (uc *AdminUseCase) DeleteUser(ctx context.Context, adminID, userID uuid.UUID) error {
	if adminID == userID {
		return apperror.NewPermissionDenied("admins cannot delete their own account")
	}
	if err := uc.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	if uc.stores != nil {
		uc.stores.Forget(userID.String())
	}
	uc.logger.Info("User deleted by admin", zap.String("admin_id", adminID.String()), zap.String("user_id", userID.String()))
	return nil
}

type DashboardStats struct {
	Users     *user.Stats           `json:"users"`
	Templates *template.Stats       `json:"templates"`
	Sections  map[string]int        `json:"sections"`
	Exports   map[export.Status]int `json:"exports"`
}

// Stats gathers the dashboard counters concurrently.
func (uc *AdminUseCase) Stats(ctx context.Context) (*DashboardStats, error) {
	out := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.Users, err = uc.userRepo.Stats(gctx, time.Now().UTC().AddDate(0, 0, -7))
		return err
	})
	g.Go(func() (err error) {
		out.Templates, err = uc.templateRepo.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Sections, err = uc.entryRepo.CountBySection(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Exports, err = uc.exportRepo.CountByStatus(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
