package reliability

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3Client struct {
	objects map[string][]byte
}

func newFakeS3Client() *fakeS3Client { return &fakeS3Client{objects: make(map[string][]byte)} }

func (f *fakeS3Client) PutObject(_ context.Context, _ string, key string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeS3Client) ListObjects(_ context.Context, _ string, prefix string) ([]BackupInfo, error) {
	var out []BackupInfo
	for key, data := range f.objects {
		if ts, ok := timestampFromKey(key); ok {
			out = append(out, BackupInfo{Key: key, Timestamp: ts, SizeBytes: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeS3Client) DeleteObject(_ context.Context, _ string, key string) error {
	delete(f.objects, key)
	return nil
}

func setupWarehouseFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "warehouse.db")
	require.NoError(t, os.WriteFile(path, []byte("fake sqlite contents"), 0o644))
	return path
}

func TestBackupService_Run_UploadsArchive(t *testing.T) {
	warehousePath := setupWarehouseFile(t)
	client := newFakeS3Client()
	svc := New(client, "test-bucket", warehousePath, t.TempDir(), zerolog.Nop())

	err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, client.objects, 1)
}

func TestBackupService_Run_SkipsWhenNoBucketConfigured(t *testing.T) {
	warehousePath := setupWarehouseFile(t)
	client := newFakeS3Client()
	svc := New(client, "", warehousePath, t.TempDir(), zerolog.Nop())

	err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, client.objects)
}

func TestBackupService_Rotate_KeepsMinimumAndRecentBackups(t *testing.T) {
	client := newFakeS3Client()
	svc := New(client, "test-bucket", "unused", t.TempDir(), zerolog.Nop())

	now := time.Now()
	ages := []time.Duration{0, -24 * time.Hour, -48 * time.Hour, -200 * 24 * time.Hour, -400 * 24 * time.Hour}
	for _, age := range ages {
		ts := now.Add(age)
		key := archivePrefix + ts.UTC().Format("2006-01-02-150405") + ".tar.gz"
		client.objects[key] = []byte("x")
	}

	err := svc.Rotate(context.Background(), 90, 3)
	require.NoError(t, err)

	// The two backups older than 90 days beyond the 3 newest should be gone.
	assert.Len(t, client.objects, 3)
}

func TestBackupService_Rotate_NoopWhenFewerThanMinKeep(t *testing.T) {
	client := newFakeS3Client()
	svc := New(client, "test-bucket", "unused", t.TempDir(), zerolog.Nop())

	key := archivePrefix + time.Now().UTC().Format("2006-01-02-150405") + ".tar.gz"
	client.objects[key] = []byte("x")

	err := svc.Rotate(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Len(t, client.objects, 1)
}

func TestJob_Name(t *testing.T) {
	svc := New(newFakeS3Client(), "b", "p", t.TempDir(), zerolog.Nop())
	job := NewJob(svc, 90, 3)
	assert.Equal(t, "warehouse-s3-backup", job.Name())
}
