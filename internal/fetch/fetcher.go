// Package fetch locates and downloads the newest inventory workbook.
// S3 access is strictly read-only: list and get, never put or delete.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"invrep/internal/config"
	"invrep/pkg/logx"
)

// ObjectStore is the slice of the S3 API the fetcher needs. *s3.Client
// satisfies it; tests supply a fake.
type ObjectStore interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Result is the located workbook. ReportDate is the S3 LastModified
// timestamp, or the local file's mtime when the override is active.
type Result struct {
	Path       string
	ReportDate time.Time
	FromS3     bool
}

// Fetcher downloads the newest matching workbook into DownloadDir.
type Fetcher struct {
	Store       ObjectStore
	Bucket      string
	Prefix      string
	Extension   string
	DownloadDir string

	Log logx.Logger
}

// NewClient builds an S3 client. Static credentials from the environment
// win; otherwise the SDK's default chain (instance profile, shared config)
// applies.
func NewClient(ctx context.Context, cfg config.SourceConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); key != "" && secret != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// Local validates a workbook path on disk and stamps it with its mtime.
func Local(path string) (*Result, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("local workbook: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("local workbook %s is a directory", path)
	}
	return &Result{Path: path, ReportDate: fi.ModTime()}, nil
}

// Fetch lists the bucket, picks the newest valid workbook and downloads it.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	if f.Bucket == "" {
		return nil, fmt.Errorf("bucket is not configured")
	}
	ext := strings.ToLower(f.Extension)
	if ext != ".xlsx" && ext != ".xls" {
		f.Log.Warn("non-excel extension configured, using .xlsx", logx.String("extension", f.Extension))
		ext = ".xlsx"
	}

	key, modified, size, err := f.newestObject(ctx, ext)
	if err != nil {
		return nil, err
	}
	f.Log.Info("latest workbook identified",
		logx.String("key", key), logx.Time("last_modified", modified), logx.Int64("size", size))

	path, err := f.download(ctx, key, modified, size, ext)
	if err != nil {
		return nil, err
	}
	return &Result{Path: path, ReportDate: modified, FromS3: true}, nil
}

func (f *Fetcher) newestObject(ctx context.Context, ext string) (key string, modified time.Time, size int64, err error) {
	var (
		total int
		found bool
	)
	input := &s3.ListObjectsV2Input{Bucket: &f.Bucket}
	if f.Prefix != "" {
		input.Prefix = &f.Prefix
	}

	paginator := s3.NewListObjectsV2Paginator(f.Store, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", time.Time{}, 0, fmt.Errorf("list bucket %s: %w", f.Bucket, err)
		}
		for _, obj := range page.Contents {
			total++
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			k := *obj.Key
			var sz int64
			if obj.Size != nil {
				sz = *obj.Size
			}
			if !usableKey(k, ext) || sz == 0 {
				continue
			}
			if !found || obj.LastModified.After(modified) {
				key, modified, size = k, *obj.LastModified, sz
				found = true
			}
		}
	}

	if total == 0 {
		return "", time.Time{}, 0, fmt.Errorf("no objects in bucket %s with prefix %q", f.Bucket, f.Prefix)
	}
	if !found {
		return "", time.Time{}, 0, fmt.Errorf("no valid %s workbooks in bucket %s with prefix %q", ext, f.Bucket, f.Prefix)
	}
	return key, modified, size, nil
}

// usableKey filters out spreadsheet lock files and partial uploads.
func usableKey(key, ext string) bool {
	k := strings.ToLower(key)
	if !strings.HasSuffix(k, ext) {
		return false
	}
	for _, pattern := range []string{"~$", ".tmp", ".temp", "._"} {
		if strings.Contains(k, pattern) {
			return false
		}
	}
	return true
}

func (f *Fetcher) download(ctx context.Context, key string, modified time.Time, wantSize int64, ext string) (string, error) {
	dir := filepath.Join(f.DownloadDir, "input")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("latest_inventory_%s%s", modified.Format("20060102_150405"), ext))

	out, err := f.Store.GetObject(ctx, &s3.GetObjectInput{Bucket: &f.Bucket, Key: &key})
	if err != nil {
		return "", fmt.Errorf("get object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(dst, out.Body)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	if n == 0 {
		_ = os.Remove(path)
		return "", fmt.Errorf("downloaded workbook %s is empty", key)
	}
	if n != wantSize {
		f.Log.Warn("downloaded size differs from listing",
			logx.Int64("downloaded", n), logx.Int64("listed", wantSize))
	}
	f.Log.Info("workbook downloaded", logx.String("path", path), logx.Int64("bytes", n))
	return path, nil
}
