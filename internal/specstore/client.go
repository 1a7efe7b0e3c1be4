package specstore

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
)

// ErrNotFound is returned when the store has no document with the
// requested id.
var ErrNotFound = errors.New("specstore: not found")

type tokenKey struct{}

// WithToken returns a context carrying the caller's bearer credential.
// The client forwards it verbatim on every outgoing request; the token
// is opaque to the gateway.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer credential attached by WithToken,
// or "" when none is present.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client is the typed HTTP client for the specification store.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used by tests and
// for custom transports).
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// New creates a Client for the store at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPersonas fetches every persona document.
func (c *Client) ListPersonas(ctx context.Context) ([]PersonaSpec, error) {
	var out []PersonaSpec
	if err := c.getJSON(ctx, "/v1/personas", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPersona fetches one persona by id.
func (c *Client) GetPersona(ctx context.Context, id string) (*PersonaSpec, error) {
	var out PersonaSpec
	if err := c.getJSON(ctx, "/v1/personas/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWorkflows fetches every workflow definition.
func (c *Client) ListWorkflows(ctx context.Context) ([]WorkflowDefinition, error) {
	var out []WorkflowDefinition
	if err := c.getJSON(ctx, "/v1/workflows", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWorkflow fetches one workflow by id.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*WorkflowDefinition, error) {
	var out WorkflowDefinition
	if err := c.getJSON(ctx, "/v1/workflows/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects fetches every project document.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.getJSON(ctx, "/v1/projects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject fetches one project by id.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var out Project
	if err := c.getJSON(ctx, "/v1/projects/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject sends a partial update for the project with the given id
// and returns the stored document after the update. The store applies
// fields last-write-wins, serialized per project id.
func (c *Client) UpdateProject(ctx context.Context, id string, fields map[string]any) (*Project, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("specstore: encode update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.baseURL+"/v1/projects/"+url.PathEscape(id), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("specstore: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(ctx, req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("specstore: update project %s: %w", id, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out Project
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("specstore: decode project %s: %w", id, err)
	}
	return &out, nil
}

// getJSON performs an authorized GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("specstore: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(ctx, req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("specstore: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("specstore: decode %s: %w", path, err)
	}
	return nil
}

// authorize copies the caller's bearer credential onto the outgoing
// request when one is attached to the context.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a short excerpt so the error names what the store said.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("specstore: %s %s: status %d: %s",
			resp.Request.Method, resp.Request.URL.Path, resp.StatusCode,
			strings.TrimSpace(string(excerpt)))
	}
	return nil
}
