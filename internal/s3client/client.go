// Package s3client exports downloaded product files to an S3-compatible
// bucket.
package s3client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appConfig "deweydata/config"
	"deweydata/internal/models"
	"deweydata/pkg/utils"
)

// objectAPI is the part of *s3.Client used for exports.
type objectAPI interface {
	manager.UploadAPIClient
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type Client struct {
	s3Client objectAPI
	config   *appConfig.Config
	logger   *slog.Logger
}

// ExportOptions controls ExportFolder.
type ExportOptions struct {
	// Archive zips the folder and uploads the single archive.
	Archive bool
	// SkipExisting leaves objects that already exist in the bucket alone.
	SkipExisting bool
}

func New(cfg *appConfig.Config) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("bucket name is not configured (BUCKET_NAME)")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Client *s3.Client
	if cfg.ApiURL != "" {
		s3Client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.ApiURL)
			o.UsePathStyle = true
		})
	} else {
		s3Client = s3.NewFromConfig(awsConfig)
	}

	return &Client{
		s3Client: s3Client,
		config:   cfg,
		logger:   slog.Default(),
	}, nil
}

func (c *Client) WithLogger(logger *slog.Logger) *Client {
	cp := *c
	cp.logger = logger
	return &cp
}

// ExportFolder uploads the files under localDir to the bucket below
// destination, keeping their paths relative to localDir.
func (c *Client) ExportFolder(ctx context.Context, localDir, destination string, opts ExportOptions) (*models.ExportResult, error) {
	startTime := time.Now()
	bucketName := c.config.BucketName

	if err := utils.ValidateDir(localDir); err != nil {
		return nil, fmt.Errorf("path validation failed: %w", err)
	}

	if _, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucketName)}); err != nil {
		return nil, fmt.Errorf("bucket %s is not reachable: %w", bucketName, err)
	}

	result := &models.ExportResult{
		BucketName:      bucketName,
		SourceDir:       localDir,
		DestinationPath: destination,
		Items:           []models.ExportItem{},
	}

	uploader := manager.NewUploader(c.s3Client)

	if opts.Archive {
		if err := c.exportArchive(ctx, uploader, localDir, destination, opts, result); err != nil {
			return nil, err
		}
	} else {
		if err := c.exportFiles(ctx, uploader, localDir, destination, opts, result); err != nil {
			return nil, err
		}
	}

	result.TotalFiles = len(result.Items)
	result.TotalSizeHuman = utils.FormatBytes(result.TotalSizeBytes)
	result.OperationTime = utils.FormatTime(startTime)
	result.UploadDuration = time.Since(startTime).String()
	return result, nil
}

func (c *Client) exportArchive(ctx context.Context, uploader *manager.Uploader, localDir, destination string, opts ExportOptions, result *models.ExportResult) error {
	archivePath := filepath.Join(os.TempDir(), utils.GenerateArchiveName(localDir, ".zip"))
	remotePath := c.buildRemotePath(destination, filepath.Base(archivePath))

	if opts.SkipExisting {
		exists, err := c.ObjectExists(ctx, remotePath)
		if err != nil {
			return err
		}
		if exists {
			c.logger.Info("object already exists, skipping", "key", remotePath)
			result.Items = append(result.Items, models.ExportItem{LocalPath: localDir, RemotePath: remotePath, IsArchived: true, Skipped: true})
			result.SkippedCount++
			return nil
		}
	}

	archiveInfo, err := utils.CreateArchive(localDir, archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer utils.CleanupTempFile(archivePath)

	c.logger.Info("uploading archive", "archive", archivePath, "files", archiveInfo.FileCount, "key", remotePath)
	if err := c.uploadSingleFile(ctx, uploader, archivePath, remotePath); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	result.ArchiveCreated = true
	result.TotalSizeBytes = archiveInfo.CompressedSize
	result.Items = append(result.Items, models.ExportItem{
		LocalPath:  localDir,
		RemotePath: remotePath,
		Size:       archiveInfo.CompressedSize,
		IsArchived: true,
	})
	return nil
}

func (c *Client) exportFiles(ctx context.Context, uploader *manager.Uploader, localDir, destination string, opts ExportOptions, result *models.ExportResult) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		remotePath := c.buildRemotePath(destination, filepath.ToSlash(relPath))
		item := models.ExportItem{LocalPath: path, RemotePath: remotePath, Size: info.Size()}

		if opts.SkipExisting {
			exists, err := c.ObjectExists(ctx, remotePath)
			if err != nil {
				return err
			}
			if exists {
				c.logger.Info("object already exists, skipping", "key", remotePath)
				item.Skipped = true
				result.Items = append(result.Items, item)
				result.SkippedCount++
				return nil
			}
		}

		c.logger.Info("uploading", "path", path, "key", remotePath)
		if err := c.uploadSingleFile(ctx, uploader, path, remotePath); err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}
		result.Items = append(result.Items, item)
		result.TotalSizeBytes += info.Size()
		return nil
	})
}

// ObjectExists reports whether key is present in the bucket.
func (c *Client) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object %s: %w", key, err)
}

func (c *Client) uploadSingleFile(ctx context.Context, uploader *manager.Uploader, localPath, remotePath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(remotePath),
		Body:        file,
		ContentType: aws.String(detectContentType(localPath)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (c *Client) buildRemotePath(destinationPath, filename string) string {
	if destinationPath == "" {
		return filename
	}

	destinationPath = strings.TrimPrefix(destinationPath, "/")

	if !strings.HasSuffix(destinationPath, "/") {
		destinationPath += "/"
	}

	return destinationPath + filename
}

var contentTypes = map[string]string{
	".csv":  "text/csv",
	".gz":   "application/gzip",
	".zip":  "application/zip",
	".json": "application/json",
	".txt":  "text/plain",
	".shp":  "application/octet-stream",
	".dbf":  "application/dbase",
	".xml":  "application/xml",
}

func detectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if contentType, exists := contentTypes[ext]; exists {
		return contentType
	}
	return "application/octet-stream"
}
