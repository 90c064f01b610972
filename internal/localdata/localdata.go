// Package localdata reads downloaded CSV / CSV.GZ files from disk and merges a
// folder of them into a single file.
package localdata

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"deweydata/internal/models"
	"deweydata/internal/table"
	"deweydata/pkg/utils"
)

// ErrNoMatchingFiles is returned when a folder holds no .csv or .csv.gz file.
var ErrNoMatchingFiles = errors.New("no csv or csv.gz files found")

type FolderNotFoundError struct {
	Folder string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("folder %s does not exist", e.Folder)
}

// NothingMergedError is returned when every file of the folder was skipped.
// No output is written.
type NothingMergedError struct {
	Folder  string
	Skipped []models.MergeSkip
}

func (e *NothingMergedError) Error() string {
	return fmt.Sprintf("no file of %s could be merged (%d skipped)", e.Folder, len(e.Skipped))
}

// MergeOptions controls FilterMerge. Both fields are optional.
type MergeOptions struct {
	// Filter is a boolean expression over column names, e.g. `visits > 10`.
	Filter string
	// Columns projects every file onto these columns, in this order.
	Columns []string
	Logger  *slog.Logger
}

// ReadLocal reads one local .csv or .csv.gz file. nrows <= 0 reads all rows.
func ReadLocal(path string, nrows int) (*table.Table, error) {
	return table.ReadFile(path, nrows)
}

// FilterMerge reads every CSV file of folder in lexical order, filters and
// projects each one, and writes the concatenation to output. A file that fails
// any step is skipped and reported in the result.
func FilterMerge(folder, output string, opts MergeOptions) (*models.MergeResult, error) {
	startTime := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return nil, &FolderNotFoundError{Folder: folder}
	}

	paths, err := csvFiles(folder)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoMatchingFiles
	}

	result := &models.MergeResult{
		Folder:      folder,
		OutputPath:  output,
		MergedFiles: []string{},
	}

	var tables []*table.Table
	for _, path := range paths {
		t, err := processFile(path, opts)
		if err != nil {
			logger.Warn("skipping file", "path", path, "error", err)
			result.Skipped = append(result.Skipped, models.MergeSkip{Path: path, Error: err.Error()})
			continue
		}
		logger.Info("processed file", "path", path, "rows", t.Len())
		tables = append(tables, t)
		result.MergedFiles = append(result.MergedFiles, path)
	}

	if len(tables) == 0 {
		return nil, &NothingMergedError{Folder: folder, Skipped: result.Skipped}
	}

	merged := table.Concat(tables...)
	if err := merged.WriteFile(output); err != nil {
		return nil, err
	}

	result.TotalRows = merged.Len()
	result.Columns = merged.Columns
	result.OperationTime = utils.FormatTime(startTime)
	logger.Info("merged files", "output", output, "files", len(tables), "rows", merged.Len())
	return result, nil
}

func processFile(path string, opts MergeOptions) (*table.Table, error) {
	t, err := table.ReadFile(path, 0)
	if err != nil {
		return nil, err
	}
	if opts.Filter != "" {
		if t, err = t.Filter(opts.Filter); err != nil {
			return nil, err
		}
	}
	if len(opts.Columns) > 0 {
		if t, err = t.Select(opts.Columns); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func csvFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.gz") {
			paths = append(paths, filepath.Join(folder, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
