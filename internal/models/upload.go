package models

import "time"

type ArchiveInfo struct {
	ArchivePath      string    `json:"archive_path"`
	SourceDir        string    `json:"source_dir"`
	FileCount        int       `json:"file_count"`
	CompressedSize   int64     `json:"compressed_size"`
	OriginalSize     int64     `json:"original_size"`
	CompressionRatio float64   `json:"compression_ratio"`
	CreatedAt        time.Time `json:"created_at"`
}

type ExportItem struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
	Size       int64  `json:"size"`
	IsArchived bool   `json:"is_archived"`
	Skipped    bool   `json:"skipped"`
}

type ExportResult struct {
	BucketName      string       `json:"bucket_name"`
	SourceDir       string       `json:"source_dir"`
	DestinationPath string       `json:"destination_path"`
	Items           []ExportItem `json:"items"`
	TotalFiles      int          `json:"total_files"`
	SkippedCount    int          `json:"skipped_count"`
	TotalSizeBytes  int64        `json:"total_size_bytes"`
	TotalSizeHuman  string       `json:"total_size_human"`
	OperationTime   string       `json:"operation_time"`
	ArchiveCreated  bool         `json:"archive_created"`
	UploadDuration  string       `json:"upload_duration"`
}
