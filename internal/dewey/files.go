package dewey

import (
	"context"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"time"
)

const (
	dateLayout = "2006-01-02"

	minPartitionDate = "1000-01-01"
	maxPartitionDate = "9999-12-31"
)

// FileRecord is one downloadable file of a product listing.
type FileRecord struct {
	Index         int    `json:"index"`
	Page          int    `json:"page"`
	Link          string `json:"link"`
	FileName      string `json:"file_name"`
	PartitionKey  string `json:"partition_key"`
	FileSizeBytes int64  `json:"file_size_bytes,omitempty"`
	// DownloadLink duplicates Link for older consumers of the listing.
	DownloadLink string `json:"download_link"`
}

// PageInfo holds the per-page statistics reported alongside the links.
type PageInfo struct {
	Page            int     `json:"page"`
	NumberOfFiles   int     `json:"number_of_files_for_page"`
	AvgFileSizeMB   float64 `json:"avg_file_size_for_page"`
	PartitionColumn string  `json:"partition_column"`
}

// Summary describes the whole selection, taken from the first page fetched.
type Summary struct {
	TotalFiles  int     `json:"total_files"`
	TotalPages  int     `json:"total_pages"`
	TotalSizeMB float64 `json:"total_size"`
	ExpiresAt   string  `json:"expires_at"`
}

type FileList struct {
	Summary Summary      `json:"summary"`
	Pages   []PageInfo   `json:"pages"`
	Files   []FileRecord `json:"files"`
}

// AvgFileSizeMB is the mean of the per-page average file sizes.
func (l *FileList) AvgFileSizeMB() float64 {
	if len(l.Pages) == 0 {
		return 0
	}
	var sum float64
	for _, p := range l.Pages {
		sum += p.AvgFileSizeMB
	}
	return sum / float64(len(l.Pages))
}

// ListOptions controls GetFileList. The zero value lists every page.
type ListOptions struct {
	// StartPage defaults to 1.
	StartPage int
	// EndPage is the last page to request; 0 means no ceiling.
	EndPage int
	// StartDate and EndDate (YYYY-MM-DD) bound the partition keys of
	// date-partitioned products. Empty means unbounded.
	StartDate string
	EndDate   string
	// Meta avoids a second metadata request when the caller already has it.
	Meta *Metadata
	// PrintInfo logs progress and the selection summary at Info level.
	PrintInfo bool
}

type downloadLink struct {
	Link          string `json:"link"`
	FileName      string `json:"file_name"`
	PartitionKey  string `json:"partition_key"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

type pageResponse struct {
	Page                 *int           `json:"page"`
	TotalPages           int            `json:"total_pages"`
	TotalFiles           int            `json:"total_files"`
	TotalSize            float64        `json:"total_size"`
	ExpiresAt            string         `json:"expires_at"`
	NumberOfFilesForPage int            `json:"number_of_files_for_page"`
	AvgFileSizeForPage   float64        `json:"avg_file_size_for_page"`
	PartitionColumn      *string        `json:"partition_column"`
	DownloadLinks        []downloadLink `json:"download_links"`
}

// GetFileList collects the file listing of a product page by page. It stops
// after the last page reported by the server or after opts.EndPage, whichever
// comes first. Any failure discards what was collected and returns the error.
func (c *Client) GetFileList(ctx context.Context, product string, opts ListOptions) (*FileList, error) {
	list, err := c.getFileList(ctx, product, opts)
	if err != nil {
		c.logger.Error("get file list failed", "product", product, "error", err)
		return nil, err
	}
	return list, nil
}

func (c *Client) getFileList(ctx context.Context, product string, opts ListOptions) (*FileList, error) {
	startDate, endDate, err := normalizeDates(opts.StartDate, opts.EndDate)
	if err != nil {
		return nil, err
	}

	meta := opts.Meta
	if meta == nil {
		meta, err = c.getMetadata(ctx, product)
		if err != nil {
			return nil, err
		}
	}

	level := slog.LevelDebug
	if opts.PrintInfo {
		level = slog.LevelInfo
	}

	endpoint := c.Endpoint(product)
	page := opts.StartPage
	if page < 1 {
		page = 1
	}

	list := &FileList{Pages: []PageInfo{}, Files: []FileRecord{}}
	first := true
	for {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		if meta.Partitioned() {
			params.Set("partition_key_after", startDate)
			params.Set("partition_key_before", endDate)
		}

		var res pageResponse
		if err := c.getJSON(ctx, endpoint, params, &res); err != nil {
			return nil, err
		}
		if res.Page == nil {
			return nil, &ValidationError{URL: endpoint, Message: "response has no page field"}
		}
		current := *res.Page

		if first {
			list.Summary = Summary{
				TotalFiles:  res.TotalFiles,
				TotalPages:  res.TotalPages,
				TotalSizeMB: res.TotalSize / 1000000,
				ExpiresAt:   res.ExpiresAt,
			}
			first = false
		}

		c.logger.Log(ctx, level, "collecting files information", "page", current, "total_pages", res.TotalPages)

		list.Pages = append(list.Pages, PageInfo{
			Page:            current,
			NumberOfFiles:   res.NumberOfFilesForPage,
			AvgFileSizeMB:   res.AvgFileSizeForPage / 1000000,
			PartitionColumn: deref(res.PartitionColumn),
		})
		for _, l := range res.DownloadLinks {
			list.Files = append(list.Files, FileRecord{
				Page:          current,
				Link:          l.Link,
				FileName:      l.FileName,
				PartitionKey:  l.PartitionKey,
				FileSizeBytes: l.FileSizeBytes,
				DownloadLink:  l.Link,
			})
		}

		page = current + 1
		if page > res.TotalPages || (opts.EndPage > 0 && page > opts.EndPage) {
			c.logger.Log(ctx, level, "files information collection completed")
			break
		}
	}

	for i := range list.Files {
		list.Files[i].Index = i
	}

	if opts.PrintInfo {
		c.logSummary(ctx, list)
	}
	return list, nil
}

func (c *Client) logSummary(ctx context.Context, list *FileList) {
	partitionColumn := ""
	if len(list.Pages) > 0 {
		partitionColumn = list.Pages[0].PartitionColumn
	}
	c.logger.InfoContext(ctx, "files information summary",
		"total_pages", list.Summary.TotalPages,
		"total_files", list.Summary.TotalFiles,
		"total_size_mb", round2(list.Summary.TotalSizeMB),
		"avg_file_size_mb", round2(list.AvgFileSizeMB()),
		"partition_column", partitionColumn,
		"expires_at", list.Summary.ExpiresAt,
	)
}

// normalizeDates fills empty bounds with an effectively unbounded range and
// checks that given dates are YYYY-MM-DD.
func normalizeDates(start, end string) (string, string, error) {
	if start == "" {
		start = minPartitionDate
	}
	if end == "" {
		end = maxPartitionDate
	}
	for _, d := range []string{start, end} {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return "", "", &ValidationError{Message: "date " + strconv.Quote(d) + " is not YYYY-MM-DD"}
		}
	}
	return start, end, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Slice returns the records whose partition key lies in [startDate, endDate],
// in their original order. An empty endDate leaves the range open-ended.
func Slice(files []FileRecord, startDate, endDate string) []FileRecord {
	sliced := make([]FileRecord, 0, len(files))
	for _, f := range files {
		if f.PartitionKey < startDate {
			continue
		}
		if endDate != "" && f.PartitionKey > endDate {
			continue
		}
		sliced = append(sliced, f)
	}
	return sliced
}
