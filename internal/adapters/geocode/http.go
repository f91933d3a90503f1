package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// TransportError reports a lookup that did not produce a classifiable answer:
// a network failure, an unexpected HTTP status or an unreadable body.
type TransportError struct {
	Provider string
	Code     int
	Body     string
	Err      error
}

func (e *TransportError) Error() string {
	switch {
	case e.Code != 0 && e.Err != nil:
		return fmt.Sprintf("%s: code %d: %v", e.Provider, e.Code, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("%s: code %d: %s", e.Provider, e.Code, e.Body)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// restClient carries what every REST geocoder needs: a session, a base URL
// and the headers sent with each request.
type restClient struct {
	session *http.Client
	baseURL string
	headers http.Header
}

func newRestClient(session *http.Client, baseURL string) restClient {
	if session == nil {
		session = &http.Client{Timeout: defaultTimeout}
	}
	return restClient{
		session: session,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: http.Header{},
	}
}

func (c restClient) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.URL.RawQuery = query.Encode()
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	return req, nil
}

// do executes req. Responses with status >= 400 are drained, closed and
// returned as *httpStatusError.
func (c restClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

func statusCode(err error) int {
	var he *httpStatusError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}
