package models

type DownloadItem struct {
	Index     int    `json:"index"`
	FileName  string `json:"file_name"`
	Link      string `json:"link"`
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size"`
	Skipped   bool   `json:"skipped"`
}

type DownloadResult struct {
	DestFolder       string         `json:"dest_folder"`
	Items            []DownloadItem `json:"items"`
	TotalFiles       int            `json:"total_files"`
	DownloadedCount  int            `json:"downloaded_count"`
	SkippedCount     int            `json:"skipped_count"`
	TotalSizeBytes   int64          `json:"total_size_bytes"`
	TotalSizeHuman   string         `json:"total_size_human"`
	OperationTime    string         `json:"operation_time"`
	DownloadDuration string         `json:"download_duration"`
}
