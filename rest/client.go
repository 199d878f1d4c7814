// Package rest is the thin JSON client every domain package goes through.
// It normalizes backend failures into a single APIError shape so callers
// never branch on raw status codes.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Client issues JSON requests against the Debtwise backend. The supplied
// http.Client is expected to carry the bearer transport so every request is
// authenticated and 401s are refreshed transparently.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, contentType, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, body, contentType, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	body, contentType, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, body, contentType, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	body, contentType, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, body, contentType, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", out)
}

// PostMultipart uploads a file plus form fields, for the document-upload
// endpoint.
func (c *Client) PostMultipart(ctx context.Context, path, fieldName, filename string, file io.Reader, fields map[string]string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		return errors.Wrap(err, "[Client.PostMultipart] create form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.Wrap(err, "[Client.PostMultipart] copy file")
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return errors.Wrapf(err, "[Client.PostMultipart] write field %q", key)
		}
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "[Client.PostMultipart] close writer")
	}
	return c.do(ctx, http.MethodPost, path, &buf, writer.FormDataContentType(), out)
}

func jsonBody(in any) (io.Reader, string, error) {
	if in == nil {
		return nil, "", nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Client] marshal request body")
	}
	return bytes.NewReader(raw), "application/json", nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "[Client] build %s %s", method, path)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[Client] decode %s %s response", method, path)
	}
	return nil
}
