package dewey

import (
	"context"
	"strings"
)

// Metadata summarizes a product's file selection.
type Metadata struct {
	TotalFiles           int     `json:"total_files"`
	TotalSizeMB          float64 `json:"total_size"`
	PartitionAggregation string  `json:"partition_aggregation,omitempty"`
	PartitionColumn      string  `json:"partition_column,omitempty"`
	MinPartitionKey      string  `json:"min_partition_key,omitempty"`
	MaxPartitionKey      string  `json:"max_partition_key,omitempty"`
}

// Partitioned reports whether the product's files are bucketed by date.
func (m *Metadata) Partitioned() bool {
	return m != nil && m.PartitionColumn != ""
}

type metadataResponse struct {
	TotalFiles           int     `json:"total_files"`
	TotalSize            float64 `json:"total_size"`
	PartitionAggregation *string `json:"partition_aggregation"`
	PartitionColumn      *string `json:"partition_column"`
	PartitionKeyColumn   *string `json:"partition_key_column"`
	MinPartitionKey      *string `json:"min_partition_key"`
	MaxPartitionKey      *string `json:"max_partition_key"`
}

// GetMetadata fetches the /metadata document for a product.
func (c *Client) GetMetadata(ctx context.Context, product string) (*Metadata, error) {
	meta, err := c.getMetadata(ctx, product)
	if err != nil {
		c.logger.Error("get metadata failed", "product", product, "error", err)
		return nil, err
	}
	return meta, nil
}

func (c *Client) getMetadata(ctx context.Context, product string) (*Metadata, error) {
	endpoint := c.Endpoint(product) + "/metadata"

	var res metadataResponse
	if err := c.getJSON(ctx, endpoint, nil, &res); err != nil {
		return nil, err
	}

	// Older deployments report the partition column as partition_key_column.
	column := res.PartitionColumn
	if column == nil {
		column = res.PartitionKeyColumn
	}

	return &Metadata{
		TotalFiles:           res.TotalFiles,
		TotalSizeMB:          res.TotalSize / 1000000,
		PartitionAggregation: deref(res.PartitionAggregation),
		PartitionColumn:      strings.TrimSpace(deref(column)),
		MinPartitionKey:      deref(res.MinPartitionKey),
		MaxPartitionKey:      deref(res.MaxPartitionKey),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
