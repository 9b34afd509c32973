// Package inspect talks to the document inspection service.
package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/doc-inspector/webclient/internal/models"
	"github.com/rs/zerolog"
)

// FilterParam is the repeated query parameter naming the classes to draw.
const FilterParam = "find"

// FileField is the multipart field carrying the document.
const FileField = "file"

// Result is the annotated image returned by the service.
type Result struct {
	Data        []byte
	ContentType string
}

// ServerError is returned for any non-2xx response.
type ServerError struct {
	StatusCode int
	Reason     string
	Detail     string
}

// Error returns the service-provided detail, or the reason phrase when there is none.
func (e *ServerError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "Ошибка сервера: " + e.Reason
}

// Client posts documents to the inspection endpoint.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the given base endpoint, e.g. http://127.0.0.1:8000/inspect/.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be absolute", endpoint)
	}

	c := &Client{
		endpoint: u,
		// No Timeout: a dispatched request runs until the service answers or the connection fails.
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the base endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// BuildURL returns the endpoint with one find parameter per filter, in order.
func (c *Client) BuildURL(filters []string) string {
	params := url.Values{}
	for _, f := range filters {
		params.Add(FilterParam, f)
	}

	u := *c.endpoint
	u.RawQuery = params.Encode()
	return u.String()
}

// Inspect uploads the file and returns the annotated image.
func (c *Client) Inspect(ctx context.Context, file *models.SelectedFile, filters []string) (*Result, error) {
	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return nil, err
	}

	target := c.BuildURL(filters)
	c.logger.Debug().Str("url", target).Str("file", file.Name).Int64("size", file.Size()).Msg("sending document")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeServerError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Result{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// encodeMultipart writes the file as the single "file" part, keeping its declared content type.
func encodeMultipart(file *models.SelectedFile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FileField, escapeQuotes(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("copy file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// decodeServerError reads an optional JSON {"detail": "..."} body.
func decodeServerError(resp *http.Response) *ServerError {
	serr := &ServerError{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
	}

	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return serr
	}
	if detail, ok := payload.Detail.(string); ok {
		serr.Detail = detail
	}
	return serr
}

// reasonPhrase strips the numeric code from resp.Status.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
