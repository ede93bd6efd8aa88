package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quiz-session-engine/internal/domain"
)

// CredentialProvider supplies the bearer credential attached to every call.
// An empty token sends no Authorization header.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer credential.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Client implements the engine's question source and result submitter against
// a question bank backend.
type Client struct {
	baseURL     string
	client      *http.Client
	credentials CredentialProvider
}

// New constructs a client for the given base URL.
func New(baseURL string, credentials CredentialProvider) *Client {
	return NewWithTimeout(baseURL, credentials, 0)
}

// NewWithTimeout constructs a client for the given base URL with a request timeout.
func NewWithTimeout(baseURL string, credentials CredentialProvider, timeout time.Duration) *Client {
	if credentials == nil {
		credentials = StaticToken("")
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: timeout},
		credentials: credentials,
	}
}

// FetchQuestions loads the questions of category. Any status other than 200 is
// a fetch failure.
func (c *Client) FetchQuestions(ctx context.Context, category string) ([]domain.Question, error) {
	query := url.Values{"category": []string{category}}
	body, status, err := c.do(ctx, http.MethodGet, "/questions?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, decodeHTTPError(status, body)
	}
	var questions []domain.Question
	if err := json.Unmarshal(body, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

// SubmitResults posts a completed session. 200 and 201 are success.
func (c *Client) SubmitResults(ctx context.Context, aggregate domain.Aggregate) error {
	payload, err := json.Marshal(aggregate)
	if err != nil {
		return err
	}
	body, status, err := c.do(ctx, http.MethodPost, "/quiz", payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return decodeHTTPError(status, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.credentials.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func decodeHTTPError(status int, body []byte) error {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return fmt.Errorf("http %d: %s", status, resp.Error)
	}
	return fmt.Errorf("http %d", status)
}
