package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rebeliceyang/lazytdm/internal/models"
)

// RequestIDHeader carries a per-request id that the server echoes in its logs
const RequestIDHeader = "X-Request-ID"

// Config holds configuration for creating a gateway Client
type Config struct {
	// BaseURL is the root of the remote data gateway, e.g. "http://localhost:5000"
	BaseURL string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient defaults to a client with Timeout applied
	HTTPClient *http.Client

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// Client talks to the remote data gateway over HTTP/JSON
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a gateway client
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid gateway base URL %q: %w", baseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the gateway root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListRepositories returns every repository with its tables
func (c *Client) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	var resp struct {
		Repositories []models.Repository `json:"repositories"`
	}
	if err := c.doJSON(ctx, "list repositories", http.MethodGet, "/api/repositories", nil, &resp); err != nil {
		return nil, err
	}

	for i := range resp.Repositories {
		repo := &resp.Repositories[i]
		for j := range repo.Tables {
			repo.Tables[j].RepositoryID = repo.ID
		}
	}
	return resp.Repositories, nil
}

// CreateRepository creates a repository with the given name
func (c *Client) CreateRepository(ctx context.Context, name string) error {
	body := map[string]string{"name": name}
	return c.doJSON(ctx, "create repository", http.MethodPost, "/repository", body, nil)
}

// DeleteRepository deletes a repository and its tables
func (c *Client) DeleteRepository(ctx context.Context, id models.ID) error {
	return c.doJSON(ctx, "delete repository", http.MethodDelete, "/repository/"+url.PathEscape(id.String()), nil, nil)
}

// CreateTableResult is the body returned by the create table endpoint
type CreateTableResult struct {
	Created bool   `json:"created"`
	Message string `json:"message,omitempty"`
}

// AlreadyExists reports whether the gateway refused the table because its name is taken.
// The gateway only answers with a message in that case.
func (r CreateTableResult) AlreadyExists() bool {
	return !r.Created && r.Message != ""
}

// CreateTable creates a table in a repository. Columns are sent comma-joined.
func (c *Client) CreateTable(ctx context.Context, repoID models.ID, name string, columns []string) (CreateTableResult, error) {
	body := map[string]any{
		"repo_id":    repoID,
		"table_name": name,
		"columns":    strings.Join(columns, ","),
	}

	var result CreateTableResult
	if err := c.doJSON(ctx, "create table", http.MethodPost, "/createtable", body, &result); err != nil {
		return CreateTableResult{}, err
	}
	return result, nil
}

// DeleteTable deletes a table and its rows
func (c *Client) DeleteTable(ctx context.Context, id models.ID) error {
	return c.doJSON(ctx, "delete table", http.MethodDelete, "/table/"+url.PathEscape(id.String()), nil, nil)
}

// FetchTableData returns the header and rows of a table
func (c *Client) FetchTableData(ctx context.Context, tableID models.ID) (*models.TableData, error) {
	var data models.TableData
	if err := c.doJSON(ctx, "fetch table data", http.MethodGet, "/api/tabledata/"+url.PathEscape(tableID.String()), nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CreateRow persists a new row and returns its server-assigned id
func (c *Client) CreateRow(ctx context.Context, tableID models.ID, cells map[string]string) (models.ID, error) {
	body := map[string]any{
		"table_id": tableID,
		"data":     cells,
	}

	var created struct {
		DataID models.ID `json:"data_id"`
	}
	if err := c.doJSON(ctx, "create row", http.MethodPost, "/data", body, &created); err != nil {
		return "", err
	}
	return created.DataID, nil
}

// UpdateRow patches the given columns of a persisted row
func (c *Client) UpdateRow(ctx context.Context, dataID models.ID, cells map[string]string) error {
	body := map[string]any{"data": cells}
	return c.doJSON(ctx, "update row", http.MethodPut, "/updatedatarecord/"+url.PathEscape(dataID.String()), body, nil)
}

// DeleteRow deletes a persisted row
func (c *Client) DeleteRow(ctx context.Context, dataID models.ID) error {
	return c.doJSON(ctx, "delete row", http.MethodDelete, "/data/"+url.PathEscape(dataID.String()), nil, nil)
}

// UploadFile sends a spreadsheet file to be imported into a table
func (c *Client) UploadFile(ctx context.Context, tableID models.ID, path string) error {
	const op = "upload file"

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := mw.WriteField("table_id", tableID.String()); err != nil {
		return fmt.Errorf("failed to write table_id field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload_excel", &buf)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = c.do(op, req)
	return err
}

// ExportTable downloads a table as xlsx bytes
func (c *Client) ExportTable(ctx context.Context, tableID models.ID) ([]byte, error) {
	const op = "export table"

	req, err := c.newRequest(ctx, http.MethodGet, "/download/"+url.PathEscape(tableID.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return c.do(op, req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

// doJSON encodes in (if any) as the request body and decodes the response into out (if any)
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(op, req)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// do sends the request and returns the body of a 200 response
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed",
			"op", op, "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	c.logger.Debug("gateway request",
		"op", op,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(RequestIDHeader),
		"duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
