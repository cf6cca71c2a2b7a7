package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/resume-builder/pkg/logger"
)

type fixedDump struct {
	data []byte
	err  error
}

func (f fixedDump) Dump(context.Context) ([]byte, error) { return f.data, f.err }

type memStore struct {
	keys []string
	err  error
}

func (m *memStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "https://files.example.com/" + key, nil
}

func TestBackup_StoresDumpUnderDatedKey(t *testing.T) {
	store := &memStore{}
	uc := NewBackupUseCase(fixedDump{data: []byte("PGDMP")}, store, logger.NewNopLogger())
	uc.now = func() time.Time { return time.Date(2026, 10, 16, 3, 4, 5, 0, time.UTC) }

	url, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"backups/database/backup-2026-10-16_03-04-05.dump"}, store.keys)
	assert.Equal(t, "https://files.example.com/backups/database/backup-2026-10-16_03-04-05.dump", url)
}

func TestBackup_Failures(t *testing.T) {
	boom := errors.New("boom")

	store := &memStore{}
	_, err := NewBackupUseCase(fixedDump{err: boom}, store, logger.NewNopLogger()).Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.keys)

	_, err = NewBackupUseCase(fixedDump{data: []byte("x")}, &memStore{err: boom}, logger.NewNopLogger()).Execute(context.Background())
	assert.ErrorIs(t, err, boom)
}
