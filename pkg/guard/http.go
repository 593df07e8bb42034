package guard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request carries optional headers and query parameters for Get.
type Request struct {
	Headers http.Header
	Params  url.Values
}

// Response is the result of a guarded GET. Body, Status and Header are set
// only when Available is true.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	Available bool
	Attempts  int
	Err       error
}

type reply struct {
	status int
	header http.Header
	body   []byte
}

// Get performs an idempotent GET under the retry policy. Success requires a
// 2xx status and a fully read body no larger than the configured limit.
func (e *Executor) Get(ctx context.Context, target string, req Request) Response {
	u, err := buildURL(target, req.Params)
	if err != nil {
		recordCall(callHTTPGet, 0, false)
		return Response{Err: err}
	}

	res := Retry(ctx, e.retry, func(ctx context.Context) (reply, error) {
		return e.get(ctx, u, req.Headers)
	})

	recordCall(callHTTPGet, res.Attempts, res.Available)

	if !res.Available {
		e.logger.WarnContext(ctx, "http get unavailable",
			"url", u,
			"attempts", res.Attempts,
			"error", res.Err,
		)
		return Response{Attempts: res.Attempts, Err: res.Err}
	}

	return Response{
		Status:    res.Value.status,
		Header:    res.Value.header,
		Body:      res.Value.body,
		Available: true,
		Attempts:  res.Attempts,
	}
}

// Do runs an arbitrary idempotent read under the retry policy. call labels
// the operation in metrics and logs.
func (e *Executor) Do(ctx context.Context, call string, op func(ctx context.Context) ([]byte, error)) Result[[]byte] {
	res := Retry(ctx, e.retry, op)
	recordCall(call, res.Attempts, res.Available)

	if !res.Available {
		e.logger.WarnContext(ctx, "guarded call unavailable",
			"call", call,
			"attempts", res.Attempts,
			"error", res.Err,
		)
	}

	return res
}

func (e *Executor) get(ctx context.Context, target string, headers http.Header) (reply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return reply{}, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return reply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return reply{}, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody+1))
	if err != nil {
		return reply{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > e.maxBody {
		return reply{}, ErrBodyTooLarge
	}

	return reply{
		status: resp.StatusCode,
		header: resp.Header,
		body:   body,
	}, nil
}

func buildURL(target string, params url.Values) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if len(params) == 0 {
		return u.String(), nil
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
