package dewey

import (
	"fmt"
	"strconv"

	"deweydata/internal/table"
)

var listingColumns = []string{"index", "page", "link", "file_name", "partition_key", "download_link"}

// ListingTable renders file records in the column layout used for saved
// listings.
func ListingTable(files []FileRecord) *table.Table {
	t := &table.Table{Columns: append([]string(nil), listingColumns...), Rows: make([][]string, 0, len(files))}
	for _, f := range files {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(f.Index),
			strconv.Itoa(f.Page),
			f.Link,
			f.FileName,
			f.PartitionKey,
			f.DownloadLink,
		})
	}
	return t
}

// RecordsFromTable reads back a listing saved by ListingTable.
func RecordsFromTable(t *table.Table) ([]FileRecord, error) {
	col := make(map[string]int, len(listingColumns))
	for _, name := range listingColumns {
		i := t.ColumnIndex(name)
		if i < 0 && name != "download_link" {
			return nil, fmt.Errorf("listing is missing column %q", name)
		}
		col[name] = i
	}

	cell := func(row []string, name string) string {
		i := col[name]
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	files := make([]FileRecord, 0, t.Len())
	for n, row := range t.Rows {
		index, err := strconv.Atoi(cell(row, "index"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad index: %w", n+1, err)
		}
		page, err := strconv.Atoi(cell(row, "page"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad page: %w", n+1, err)
		}
		f := FileRecord{
			Index:        index,
			Page:         page,
			Link:         cell(row, "link"),
			FileName:     cell(row, "file_name"),
			PartitionKey: cell(row, "partition_key"),
			DownloadLink: cell(row, "download_link"),
		}
		if f.DownloadLink == "" {
			f.DownloadLink = f.Link
		}
		files = append(files, f)
	}
	return files, nil
}
