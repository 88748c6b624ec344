package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/satishbabariya/prisma-soql/internal/adapters/transport"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
)

type queryResponse struct {
	TotalSize      int              `json:"totalSize"`
	Done           bool             `json:"done"`
	NextRecordsURL string           `json:"nextRecordsUrl"`
	Records        []map[string]any `json:"records"`
}

// Query implements transport.Transport. Result pages are followed until the
// answer is done.
func (c *Client) Query(ctx context.Context, soql string) (transport.RawResult, error) {
	path := "query?q=" + url.QueryEscape(soql)

	var result transport.RawResult
	for {
		var page queryResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return transport.RawResult{}, err
		}

		result.Size = page.TotalSize
		for _, rec := range page.Records {
			result.Records = append(result.Records, transport.Record(stripAttributes(rec)))
		}
		if page.Done || page.NextRecordsURL == "" {
			break
		}
		path = page.NextRecordsURL
	}
	return result, nil
}

// stripAttributes removes the type metadata the API attaches to every record
// and nested relationship.
func stripAttributes(rec map[string]any) map[string]any {
	delete(rec, "attributes")
	for k, v := range rec {
		if nested, ok := v.(map[string]any); ok {
			rec[k] = stripAttributes(nested)
		}
	}
	return rec
}

type compositeRequest struct {
	AllOrNone bool             `json:"allOrNone"`
	Records   []map[string]any `json:"records"`
}

// Create implements transport.Transport.
func (c *Client) Create(ctx context.Context, payloads []domain.RecordPayload) (domain.BatchResult, error) {
	return c.composite(ctx, domain.Create, http.MethodPost, payloads)
}

// Update implements transport.Transport.
func (c *Client) Update(ctx context.Context, payloads []domain.RecordPayload) (domain.BatchResult, error) {
	return c.composite(ctx, domain.Update, http.MethodPatch, payloads)
}

func (c *Client) composite(ctx context.Context, op domain.Operation, method string, payloads []domain.RecordPayload) (domain.BatchResult, error) {
	results := make(domain.BatchResult, 0, len(payloads))
	for start := 0; start < len(payloads); start += c.batchSize {
		end := min(start+c.batchSize, len(payloads))

		req := compositeRequest{Records: make([]map[string]any, 0, end-start)}
		for _, p := range payloads[start:end] {
			req.Records = append(req.Records, encodePayload(p, op))
		}

		var chunk domain.BatchResult
		if err := c.do(ctx, method, "composite/sobjects", req, &chunk); err != nil {
			return nil, fmt.Errorf("%s batch failed at record %d: %w", op, start, err)
		}
		results = append(results, chunk...)
	}
	return results, domain.NewBatchError(op, results)
}

func encodePayload(p domain.RecordPayload, op domain.Operation) map[string]any {
	rec := map[string]any{
		"attributes": map[string]string{"type": p.SObject},
	}
	if op == domain.Update {
		rec["id"] = p.ID
	}
	for _, f := range p.Fields {
		rec[f.Field] = encodeValue(f.Value)
	}
	return rec
}

func encodeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("2006-01-02T15:04:05.000Z")
	case *time.Time:
		if t == nil {
			return nil
		}
		return encodeValue(*t)
	default:
		return v
	}
}

// Delete implements transport.Transport.
func (c *Client) Delete(ctx context.Context, ids []string) (domain.BatchResult, error) {
	results := make(domain.BatchResult, 0, len(ids))
	for start := 0; start < len(ids); start += c.batchSize {
		end := min(start+c.batchSize, len(ids))

		path := "composite/sobjects?ids=" + url.QueryEscape(strings.Join(ids[start:end], ",")) + "&allOrNone=false"
		var chunk domain.BatchResult
		if err := c.do(ctx, http.MethodDelete, path, nil, &chunk); err != nil {
			return nil, fmt.Errorf("%s batch failed at record %d: %w", domain.Delete, start, err)
		}
		results = append(results, chunk...)
	}
	return results, domain.NewBatchError(domain.Delete, results)
}

// DescribeField is one field of a described object.
type DescribeField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Nillable bool   `json:"nillable"`
	Unique   bool   `json:"unique"`
}

// Describe is the metadata of an object.
type Describe struct {
	Name   string          `json:"name"`
	Label  string          `json:"label"`
	Fields []DescribeField `json:"fields"`
}

// Describe fetches the metadata of an object.
func (c *Client) Describe(ctx context.Context, sobject string) (*Describe, error) {
	var d Describe
	if err := c.do(ctx, http.MethodGet, "sobjects/"+url.PathEscape(sobject)+"/describe", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

var _ transport.Transport = (*Client)(nil)
