package mathflat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/flatsync/internal/domain"
)

const (
	// DefaultBaseURL is the production API endpoint
	DefaultBaseURL = "https://api.mathflat.com"

	defaultTimeout = 30 * time.Second
	userAgent      = "flatsync/1.0"
	platform       = "STUDENT"
	dateLayout     = "2006-01-02"
)

// Client implements domain.Client for the mathflat student API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new API client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// BaseURL returns the API endpoint the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an authenticated HTTP request
func (c *Client) doRequest(ctx context.Context, method, path, token string, query url.Values, payload interface{}) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-platform", platform)
	req.Header.Set("x-auth-token", token)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("mathflat request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("mathflat request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.ErrAuthFailed
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("mathflat request error", "status", resp.StatusCode, "body", string(data))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return data, nil
}

// decode unwraps the {data, code, message} envelope
func decode[T any](c *Client, body []byte) (*T, error) {
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("response has no data (code=%q message=%q)", env.Code, env.Message)
	}
	return env.Data, nil
}

// FetchHomeworkList returns the homeworks assigned between from and to (inclusive dates)
func (c *Client) FetchHomeworkList(ctx context.Context, token, relationID string, from, to time.Time) ([]domain.Homework, error) {
	if relationID == "" {
		return nil, fmt.Errorf("relation id is required")
	}

	query := url.Values{}
	query.Set("startDate", from.Format(dateLayout))
	query.Set("endDate", to.Format(dateLayout))

	path := fmt.Sprintf("/student-history/work/student/%s/homeworks", url.PathEscape(relationID))
	body, err := c.doRequest(ctx, http.MethodGet, path, token, query, nil)
	if err != nil {
		return nil, err
	}

	data, err := decode[HomeworkListData](c, body)
	if err != nil {
		return nil, err
	}

	return MapHomeworks(data.Items), nil
}

// FetchProblemList returns the problems of one assignment in page order
func (c *Client) FetchProblemList(ctx context.Context, token, assignmentID string) ([]domain.ProblemItem, error) {
	if assignmentID == "" {
		return nil, domain.ErrMissingAssignmentID
	}

	path := fmt.Sprintf("/student-worksheet/assign/%s/problem", url.PathEscape(assignmentID))
	body, err := c.doRequest(ctx, http.MethodGet, path, token, nil, nil)
	if err != nil {
		return nil, err
	}

	page, err := decode[ProblemPage](c, body)
	if err != nil {
		return nil, err
	}

	return MapProblemItems(page.Content), nil
}

// SubmitProblems sends answers for automatic scoring
func (c *Client) SubmitProblems(ctx context.Context, token, assignmentID string, subs []domain.Submission) error {
	if assignmentID == "" {
		return domain.ErrMissingAssignmentID
	}

	path := fmt.Sprintf("/student-worksheet/assign/%s/auto-scoring", url.PathEscape(assignmentID))
	_, err := c.doRequest(ctx, http.MethodPatch, path, token, nil, MapSubmissions(subs))
	return err
}
