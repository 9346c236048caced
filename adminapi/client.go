package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rosterload/student"
)

const (
	addBulkStudentsPath    = "/students/add-bulk-students"
	upsertBulkStudentsPath = "/students/upsert-bulk-students"
	maxErrorBodyBytes      = 4096
)

var ErrMalformedResponse = errors.New("malformed bulk upload response")

// Client defines the bulk student endpoints of the admin API.
type Client interface {
	AddBulkStudents(ctx context.Context, records []student.Record) (*UploadResult, error)
	UpsertBulkStudents(ctx context.Context, primaryField string, records []student.Record) (*UploadResult, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient httpDoer
}

// APIError is a non-2xx answer. Message holds the server's own explanation
// when the body carried one.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
	}, nil
}

type addBulkRequest struct {
	MappedData []student.Record `json:"mappedData"`
}

type upsertBulkRequest struct {
	PrimaryField string           `json:"primaryField"`
	Students     []student.Record `json:"students"`
}

func (c *HTTPClient) AddBulkStudents(ctx context.Context, records []student.Record) (*UploadResult, error) {
	if len(records) == 0 {
		return nil, errors.New("bulk insert payload must not be empty")
	}
	return c.postBulk(ctx, addBulkStudentsPath, addBulkRequest{MappedData: records})
}

func (c *HTTPClient) UpsertBulkStudents(ctx context.Context, primaryField string, records []student.Record) (*UploadResult, error) {
	if strings.TrimSpace(primaryField) == "" {
		return nil, errors.New("upsert requires a primary field")
	}
	if len(records) == 0 {
		return nil, errors.New("bulk upsert payload must not be empty")
	}
	return c.postBulk(ctx, upsertBulkStudentsPath, upsertBulkRequest{PrimaryField: primaryField, Students: records})
}

func (c *HTTPClient) postBulk(ctx context.Context, path string, body any) (*UploadResult, error) {
	var out UploadResult
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		return nil, fmt.Errorf("%w: POST %s returned no results array", ErrMalformedResponse, path)
	}
	return &out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{
			Method:     method,
			Path:       endpointPath,
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(resp.StatusCode, responseBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s %s returned an empty body", ErrMalformedResponse, method, endpointPath)
		}
		return fmt.Errorf("%w: decode %s %s: %v", ErrMalformedResponse, method, endpointPath, err)
	}
	return nil
}

// extractErrorMessage pulls a human readable message out of an error body,
// trying the usual JSON keys before falling back to the raw text.
func extractErrorMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if text, ok := payload[key].(string); ok && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}
