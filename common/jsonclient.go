package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/weaveworks/common/http/client"
)

// StatusError is returned when the remote answered with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Status)
}

// JSONClient embeds a client to make requests and unmarshals JSON responses into an
// expected struct.
type JSONClient struct {
	cl client.Requester
}

// NewJSONClient creates a JSONClient. The `client` is for making requests.
func NewJSONClient(client client.Requester) *JSONClient {
	return &JSONClient{client}
}

// Get does a GET request and unmarshals the response into dest.
func (c *JSONClient) Get(ctx context.Context, operation, url string, dest interface{}) error {
	r, err := c.send(ctx, operation, "GET", url, "", nil)
	if err != nil {
		return err
	}
	return c.parseJSON(r, dest)
}

// PostForm does a URL-encoded POST request and unmarshals the response into dest.
func (c *JSONClient) PostForm(ctx context.Context, operation, url string, values url.Values, dest interface{}) error {
	body := strings.NewReader(values.Encode())
	r, err := c.send(ctx, operation, "POST", url, "application/x-www-form-urlencoded", body)
	if err != nil {
		return err
	}
	return c.parseJSON(r, dest)
}

// Upload sends a body of the given content type, typically multipart/form-data,
// and unmarshals the response into dest.
func (c *JSONClient) Upload(ctx context.Context, operation, url, contentType string, body io.Reader, dest interface{}) error {
	r, err := c.send(ctx, operation, "POST", url, contentType, body)
	if err != nil {
		return err
	}
	return c.parseJSON(r, dest)
}

// Do executes the given request. It embeds the context into the request and ties the operation name to it.
func (c *JSONClient) Do(ctx context.Context, operation string, r *http.Request) (*http.Response, error) {
	if operation != "" {
		ctx = context.WithValue(ctx, client.OperationNameContextKey, operation)
	}
	r = r.WithContext(ctx)
	return c.cl.Do(r)
}

// parseJSON decodes the body into dest. The body is read even on error status
// since it may contain further information; a decoded body with a non-2xx status
// still yields a *StatusError.
func (c *JSONClient) parseJSON(resp *http.Response, dest interface{}) error {
	defer resp.Body.Close()
	var err error
	if dest != nil {
		if derr := json.NewDecoder(resp.Body).Decode(dest); derr != nil {
			err = errors.Wrap(derr, "decoding response")
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return err
}

// send is the one method in this struct to actually doing the request.
func (c *JSONClient) send(ctx context.Context, operation, method, url, contentType string, body io.Reader) (*http.Response, error) {
	r, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return c.Do(ctx, operation, r)
}
