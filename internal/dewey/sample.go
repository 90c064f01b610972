package dewey

import (
	"context"
	"io"
	"net/http"

	"deweydata/internal/table"
)

const defaultSampleRows = 100

// ReadSample downloads one file into memory and parses up to nrows rows of it.
// Gzip-compressed CSV is tried first, plain CSV second.
func (c *Client) ReadSample(ctx context.Context, link string, nrows int) (*table.Table, error) {
	if nrows <= 0 {
		nrows = defaultSampleRows
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, &TransportError{URL: link, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: link, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{URL: link, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: link, Status: resp.StatusCode, Err: err}
	}

	t, err := table.Decode(link, data, nrows)
	if err != nil {
		c.logger.Error("could not read sample data", "url", link, "error", err)
		return nil, err
	}
	return t, nil
}

// ReadFirstSample reads a sample of the first file on page 1 of a product.
func (c *Client) ReadFirstSample(ctx context.Context, product string, nrows int) (*table.Table, error) {
	list, err := c.GetFileList(ctx, product, ListOptions{StartPage: 1, EndPage: 1, PrintInfo: true})
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, ErrNoFiles
	}
	return c.ReadSample(ctx, list.Files[0].Link, nrows)
}
