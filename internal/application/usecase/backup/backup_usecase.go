package backup

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

// Dumper produces a database dump.
type Dumper interface {
	Dump(ctx context.Context) ([]byte, error)
}

// PgDump runs pg_dump in custom format against dsn.
type PgDump struct {
	DSN string
}

func (p PgDump) Dump(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "pg_dump", "--dbname="+p.DSN, "--format=c")

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pg_dump: %w: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}

type BackupUseCase struct {
	dumper Dumper
	store  service.ArtifactStore
	logger logger.Logger
	now    func() time.Time
}

func NewBackupUseCase(dumper Dumper, store service.ArtifactStore, log logger.Logger) *BackupUseCase {
	return &BackupUseCase{
		dumper: dumper,
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

// Execute dumps the database and stores it under backups/database. It
// returns the stored object's URL.
func (uc *BackupUseCase) Execute(ctx context.Context) (string, error) {
	uc.logger.Info("Starting database backup...")

	data, err := uc.dumper.Dump(ctx)
	if err != nil {
		uc.logger.Error("Database dump failed", err)
		return "", err
	}

	key := fmt.Sprintf("backups/database/backup-%s.dump", uc.now().UTC().Format("2006-01-02_15-04-05"))
	url, err := uc.store.Put(ctx, key, data, "application/octet-stream")
	if err != nil {
		uc.logger.Error("Failed to upload backup", err, zap.String("key", key))
		return "", err
	}

	uc.logger.Info("Database backup completed and uploaded successfully",
		zap.String("url", url),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}

// Run executes a backup every interval until ctx is done.
func (uc *BackupUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.Execute(ctx)
		}
	}
}
