package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the minimal HTTP surface the pipeline needs from resty.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	GetWithQuery(ctx context.Context, url string, query map[string]string, headers map[string]string) (*resty.Response, error)
	PostJSON(ctx context.Context, url string, body any, headers map[string]string) (*resty.Response, error)
}

type restyClient struct {
	c *resty.Client
}

// NewRestyClient builds a resty-backed client with the given request timeout
// and a small retry budget for transient failures.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &restyClient{c: c}
}

func (rc *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return rc.c.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
}

func (rc *restyClient) GetWithQuery(ctx context.Context, url string, query map[string]string, headers map[string]string) (*resty.Response, error) {
	return rc.c.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetHeaders(headers).
		Get(url)
}

func (rc *restyClient) PostJSON(ctx context.Context, url string, body any, headers map[string]string) (*resty.Response, error) {
	return rc.c.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers).
		SetBody(body).
		Post(url)
}
