// Package reliability backs up the warehouse SQLite file to S3 on a
// schedule, the same shape as the teacher's internal/reliability R2 backup
// service (tar.gz a point-in-time snapshot, checksum it, upload, rotate old
// archives) adapted to a single warehouse file instead of the teacher's
// seven-database set and to AWS S3 instead of Cloudflare R2.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// archivePrefix namespaces every object this service writes so ListBackups
// never picks up unrelated keys from a shared bucket.
const archivePrefix = "adbid-warehouse-backup-"

// BackupInfo describes one archive already stored in the bucket.
type BackupInfo struct {
	Key       string
	Timestamp time.Time
	SizeBytes int64
}

// S3Client is the subset of the AWS SDK's S3 surface this service needs,
// kept narrow so tests can fake it without standing up a real bucket.
type S3Client interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]BackupInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}

// BackupService periodically snapshots the warehouse SQLite file, archives
// it, and uploads it to S3.
type BackupService struct {
	client        S3Client
	bucket        string
	warehousePath string
	stagingDir    string
	log           zerolog.Logger
}

// New builds a BackupService over an already-constructed S3Client.
func New(client S3Client, bucket, warehousePath, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		client:        client,
		bucket:        bucket,
		warehousePath: warehousePath,
		stagingDir:    filepath.Join(dataDir, "backup-staging"),
		log:           log.With().Str("component", "reliability_backup").Logger(),
	}
}

// NewDefaultS3Client builds the production S3Client from the process's
// default AWS credential chain (env vars, shared config, instance role),
// the same discovery the teacher's R2Client wraps for Cloudflare's
// S3-compatible endpoint.
func NewDefaultS3Client(ctx context.Context, region string) (S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("reliability: load aws config: %w", err)
	}
	svc := s3.NewFromConfig(cfg)
	return &sdkS3Client{svc: svc, uploader: manager.NewUploader(svc)}, nil
}

type sdkS3Client struct {
	svc      *s3.Client
	uploader *manager.Uploader
}

func (c *sdkS3Client) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          body,
		ContentLength: &size,
	})
	return err
}

func (c *sdkS3Client) ListObjects(ctx context.Context, bucket, prefix string) ([]BackupInfo, error) {
	out, err := c.svc.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &bucket, Prefix: &prefix})
	if err != nil {
		return nil, err
	}
	infos := make([]BackupInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		ts, ok := timestampFromKey(*obj.Key)
		if !ok {
			continue
		}
		size := int64(0)
		if obj.Size != nil {
			size = *obj.Size
		}
		infos = append(infos, BackupInfo{Key: *obj.Key, Timestamp: ts, SizeBytes: size})
	}
	return infos, nil
}

func (c *sdkS3Client) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.svc.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key})
	return err
}

// Run creates a tar.gz snapshot of the warehouse file and uploads it. It is
// the job scheduler.Job wraps for the periodic backup cadence.
func (b *BackupService) Run(ctx context.Context) error {
	if b.bucket == "" {
		b.log.Debug().Msg("no backup bucket configured, skipping")
		return nil
	}

	start := time.Now()
	if err := os.MkdirAll(b.stagingDir, 0o755); err != nil {
		return fmt.Errorf("reliability: create staging dir: %w", err)
	}
	defer os.RemoveAll(b.stagingDir)

	checksum, err := checksumFile(b.warehousePath)
	if err != nil {
		return fmt.Errorf("reliability: checksum warehouse file: %w", err)
	}

	archivePath := filepath.Join(b.stagingDir, "snapshot.tar.gz")
	if err := b.archiveWarehouse(archivePath, checksum); err != nil {
		return fmt.Errorf("reliability: build archive: %w", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("reliability: open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	key := archivePrefix + start.UTC().Format("2006-01-02-150405") + ".tar.gz"
	if err := b.client.PutObject(ctx, b.bucket, key, f, info.Size()); err != nil {
		return fmt.Errorf("reliability: upload to s3: %w", err)
	}

	b.log.Info().
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Dur("duration_ms", time.Since(start)).
		Msg("warehouse backup uploaded")
	return nil
}

// Rotate deletes backups older than retentionDays, always keeping at least
// minKeep regardless of age.
func (b *BackupService) Rotate(ctx context.Context, retentionDays, minKeep int) error {
	backups, err := b.client.ListObjects(ctx, b.bucket, archivePrefix)
	if err != nil {
		return fmt.Errorf("reliability: list backups: %w", err)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].Timestamp.After(backups[j].Timestamp) })

	if len(backups) <= minKeep || retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	deleted := 0
	for i, bk := range backups {
		if i < minKeep || !bk.Timestamp.Before(cutoff) {
			continue
		}
		if err := b.client.DeleteObject(ctx, b.bucket, bk.Key); err != nil {
			b.log.Error().Err(err).Str("key", bk.Key).Msg("failed to delete old backup")
			continue
		}
		deleted++
	}
	b.log.Info().Int("deleted", deleted).Int("remaining", len(backups)-deleted).Msg("backup rotation complete")
	return nil
}

// Job adapts the backup service to scheduler.Job's context-free Run()
// signature, with a fixed per-run deadline so a stuck upload never wedges
// the cron goroutine.
type Job struct {
	svc            *BackupService
	retentionDays  int
	minKeep        int
}

// NewJob builds the scheduler.Job for the periodic backup+rotate cadence.
func NewJob(svc *BackupService, retentionDays, minKeep int) *Job {
	return &Job{svc: svc, retentionDays: retentionDays, minKeep: minKeep}
}

// Name implements scheduler.Job.
func (j *Job) Name() string { return "warehouse-s3-backup" }

// Run implements scheduler.Job.
func (j *Job) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := j.svc.Run(ctx); err != nil {
		return err
	}
	return j.svc.Rotate(ctx, j.retentionDays, j.minKeep)
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (b *BackupService) archiveWarehouse(archivePath, checksum string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	src, err := os.Open(b.warehousePath)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	if err := tw.WriteHeader(&tar.Header{
		Name:    "warehouse.db",
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}); err != nil {
		return err
	}
	if _, err := io.Copy(tw, src); err != nil {
		return err
	}

	checksumBytes := []byte("sha256:" + checksum + "\n")
	if err := tw.WriteHeader(&tar.Header{
		Name: "checksum.sha256",
		Size: int64(len(checksumBytes)),
		Mode: 0o644,
	}); err != nil {
		return err
	}
	_, err = tw.Write(checksumBytes)
	return err
}

func timestampFromKey(key string) (time.Time, bool) {
	if !strings.HasPrefix(key, archivePrefix) || !strings.HasSuffix(key, ".tar.gz") {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(key, archivePrefix), ".tar.gz")
	ts, err := time.Parse("2006-01-02-150405", raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
