// Package api is the HTTP client for the real-estate analysis backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/estatelens-cli/internal/model"
)

const (
	AnalyzePath = "/api/analyze/"
	UploadPath  = "/api/upload/"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 32 << 20
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.Logger
}

// NewClient returns a client for the backend at baseURL. A nil logger
// disables logging.
func NewClient(baseURL string, httpTimeout time.Duration, log *zap.Logger) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Analyze submits a query and returns the validated result.
func (c *Client) Analyze(ctx context.Context, query string) (*model.AnalysisResult, error) {
	payload, err := json.Marshal(model.AnalysisRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	reqID := uuid.NewString()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", reqID)

	c.log.Debug("analyze request", zap.String("request_id", reqID), zap.Int("query_len", len(query)))
	body, err := c.do(httpReq, AnalyzePath, reqID)
	if err != nil {
		return nil, err
	}
	if err := validateAnalyzeBody(AnalyzePath, body); err != nil {
		return nil, err
	}
	var out model.AnalysisResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &SchemaError{Endpoint: AnalyzePath, Problems: []string{err.Error()}}
	}
	c.log.Debug("analyze response",
		zap.String("request_id", reqID),
		zap.Int("locations", out.ChartData.Len()),
		zap.Int("rows", len(out.TableData)))
	return &out, nil
}

// Upload sends a spreadsheet as multipart form data in the "file" field.
// Only the status code of the response is inspected.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build multipart: %w", err)
	}
	reqID := uuid.NewString()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("X-Request-Id", reqID)

	c.log.Debug("upload request", zap.String("request_id", reqID), zap.String("file", filepath.Base(filename)), zap.Int("bytes", buf.Len()))
	if _, err := c.do(httpReq, UploadPath, reqID); err != nil {
		return err
	}
	return nil
}

// do executes the request and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, endpoint, reqID string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Host: hostOf(c.baseURL), RequestID: reqID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		apiErr := &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, RequestID: reqID}
		if id := resp.Header.Get("X-Request-Id"); id != "" {
			apiErr.RequestID = id
		}
		apiErr.Message = errorMessage(body)
		return nil, apiErr
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UnreachableError{Host: hostOf(c.baseURL), RequestID: reqID, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// errorMessage extracts {"error": "..."} or {"message": "..."} when present.
func errorMessage(body []byte) string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return ""
	}
	for _, k := range []string{"error", "message", "detail"} {
		if s, ok := raw[k].(string); ok {
			return s
		}
	}
	return ""
}

func hostOf(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}
