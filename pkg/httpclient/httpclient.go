package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Response carries the raw outcome of one HTTP exchange alongside whatever
// was decoded into the caller's result value.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// OK reports whether the exchange finished with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Client is the JSON-over-HTTP surface the repositories consume.
type Client interface {
	Get(ctx context.Context, endpoint string, query map[string]string, result interface{}) (*Response, error)
	Post(ctx context.Context, endpoint string, body interface{}, result interface{}) (*Response, error)
}

type restyClient struct {
	client *resty.Client
}

// New builds a resty-backed Client rooted at baseURL. Successful responses
// are decoded into the result value passed per call.
func New(baseURL string, timeout time.Duration) Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &restyClient{client: client}
}

func (c *restyClient) Get(ctx context.Context, endpoint string, query map[string]string, result interface{}) (*Response, error) {
	req := c.client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Get(endpoint)
	return wrap(resp), err
}

func (c *restyClient) Post(ctx context.Context, endpoint string, body interface{}, result interface{}) (*Response, error) {
	req := c.client.R().
		SetContext(ctx).
		SetBody(body)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(endpoint)
	return wrap(resp), err
}

// wrap tolerates the nil response resty hands back on transport failures.
func wrap(resp *resty.Response) *Response {
	if resp == nil {
		return &Response{}
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Header:     resp.Header(),
	}
}
