package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/restclient"
)

// Client talks to a running docqa server.
type Client struct {
	rest *restclient.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{rest: restclient.New(strings.TrimRight(baseURL, "/"), nil, timeout)}
}

// Upload sends content as a multipart file named filename.
func (c *Client) Upload(ctx context.Context, filename string, content []byte) (*models.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	data, status, err := c.rest.Do(ctx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType(), nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if status != http.StatusCreated {
		return nil, serverError(&restclient.StatusError{StatusCode: status, Body: string(data)})
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &doc, nil
}

// Ingest chunks and embeds a stored document.
func (c *Client) Ingest(ctx context.Context, documentID string) (*models.IngestResult, error) {
	var out models.IngestResult
	if err := c.rest.PostJSON(ctx, "/api/ingest", models.IngestRequest{DocumentID: documentID}, &out, nil); err != nil {
		return nil, serverError(err)
	}
	return &out, nil
}

// Query asks a question, optionally scoped to one document.
func (c *Client) Query(ctx context.Context, req *models.QueryRequest) (*models.Answer, error) {
	var out models.Answer
	if err := c.rest.PostJSON(ctx, "/api/query", req, &out, nil); err != nil {
		return nil, serverError(err)
	}
	return &out, nil
}

// ListDocuments returns one page of documents and the total count.
func (c *Client) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, int64, error) {
	q := url.Values{}
	q.Set("offset", fmt.Sprint(offset))
	q.Set("limit", fmt.Sprint(limit))
	var out struct {
		Documents []*models.Document `json:"documents"`
		Total     int64              `json:"total"`
	}
	if err := c.rest.GetJSON(ctx, "/api/documents?"+q.Encode(), &out); err != nil {
		return nil, 0, serverError(err)
	}
	return out.Documents, out.Total, nil
}

// DeleteDocument removes a document and its chunks.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return serverError(c.rest.DeleteJSON(ctx, "/api/documents/"+url.PathEscape(id), nil))
}

// Status returns storage counts and provider chains.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.rest.GetJSON(ctx, "/api/status", &out); err != nil {
		return nil, serverError(err)
	}
	return &out, nil
}

// serverError turns an HTTP error response back into the matching sentinel
// so callers can classify it the same way as a direct storage call.
func serverError(err error) error {
	var se *restclient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	msg := se.Body
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
		msg = body.Error
	}
	switch se.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return &remoteError{msg: msg, kind: models.ErrInvalidInput}
	case http.StatusNotFound:
		return &remoteError{msg: msg, kind: models.ErrNotFound}
	default:
		return fmt.Errorf("server returned %d: %s", se.StatusCode, msg)
	}
}

// remoteError carries the server's message and unwraps to a sentinel.
type remoteError struct {
	msg  string
	kind error
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.kind }
