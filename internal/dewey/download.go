package dewey

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"deweydata/internal/models"
	"deweydata/pkg/utils"
)

// DownloadOptions controls DownloadFiles. SkipExists has no default: callers
// decide whether existing files are kept or overwritten.
type DownloadOptions struct {
	DestFolder     string
	FilenamePrefix string
	SkipExists     bool
}

// DownloadFiles writes every file of the listing into opts.DestFolder. Files
// already on disk are left untouched when opts.SkipExists is set. The first
// failed download stops the loop; the returned result then covers the files
// handled before it and the partially written file is left in place.
func (c *Client) DownloadFiles(ctx context.Context, files []FileRecord, opts DownloadOptions) (*models.DownloadResult, error) {
	startTime := time.Now()
	dest := normalizeFolder(opts.DestFolder)

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create destination folder %s: %w", dest, err)
	}

	result := &models.DownloadResult{
		DestFolder: dest,
		Items:      []models.DownloadItem{},
		TotalFiles: len(files),
	}
	finish := func() {
		result.TotalSizeHuman = utils.FormatBytes(result.TotalSizeBytes)
		result.OperationTime = utils.FormatTime(startTime)
		result.DownloadDuration = time.Since(startTime).String()
	}

	for i, f := range files {
		c.logger.Info("downloading", "n", i+1, "of", len(files), "index", f.Index)

		path := dest + opts.FilenamePrefix + f.FileName
		item := models.DownloadItem{
			Index:     f.Index,
			FileName:  f.FileName,
			Link:      f.Link,
			LocalPath: path,
		}

		if opts.SkipExists {
			if _, err := os.Stat(path); err == nil {
				c.logger.Info("file already exists, skipping", "path", path)
				item.Skipped = true
				result.Items = append(result.Items, item)
				result.SkippedCount++
				continue
			}
		}

		c.logger.Info("writing file", "path", path)
		size, err := c.downloadFile(ctx, f.Link, path)
		if err != nil {
			finish()
			return result, fmt.Errorf("download %s: %w", f.FileName, err)
		}

		item.Size = size
		result.Items = append(result.Items, item)
		result.DownloadedCount++
		result.TotalSizeBytes += size
	}

	finish()
	return result, nil
}

// DownloadProduct lists every file of a product and downloads them.
func (c *Client) DownloadProduct(ctx context.Context, product string, list ListOptions, opts DownloadOptions) (*models.DownloadResult, error) {
	files, err := c.GetFileList(ctx, product, list)
	if err != nil {
		return nil, err
	}
	if len(files.Files) == 0 {
		return nil, ErrNoFiles
	}
	return c.DownloadFiles(ctx, files.Files, opts)
}

func (c *Client) downloadFile(ctx context.Context, link, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0, &TransportError{URL: link, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{URL: link, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &TransportError{URL: link, Status: resp.StatusCode}
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return n, &TransportError{URL: link, Status: resp.StatusCode, Err: copyErr}
	}
	if closeErr != nil {
		return n, closeErr
	}
	return n, nil
}

// normalizeFolder converts backslashes and guarantees a trailing slash.
func normalizeFolder(folder string) string {
	folder = strings.ReplaceAll(folder, "\\", "/")
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	return folder
}
