package models

type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
}

type MergeSkip struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type MergeResult struct {
	Folder        string      `json:"folder"`
	OutputPath    string      `json:"output_path"`
	MergedFiles   []string    `json:"merged_files"`
	Skipped       []MergeSkip `json:"skipped,omitempty"`
	TotalRows     int         `json:"total_rows"`
	Columns       []string    `json:"columns"`
	OperationTime string      `json:"operation_time"`
}

type MirrorResult struct {
	Host            string   `json:"host"`
	Year            string   `json:"year"`
	Datasets        []string `json:"datasets"`
	LocalDir        string   `json:"local_dir"`
	DownloadedFiles []string `json:"downloaded_files"`
	SkippedFiles    []string `json:"skipped_files,omitempty"`
	TotalSizeBytes  int64    `json:"total_size_bytes"`
	TotalSizeHuman  string   `json:"total_size_human"`
	OperationTime   string   `json:"operation_time"`
	Duration        string   `json:"duration"`
}
