package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// stubTransport plays back a scripted sequence of responses; the last step
// repeats once the script runs out.
type stubTransport struct {
	steps []step
	calls int
}

type step struct {
	status int
	body   string
	err    error
}

func (s *stubTransport) DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, _ time.Time) error {
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	st := s.steps[i]
	if st.err != nil {
		return st.err
	}
	resp.SetStatusCode(st.status)
	resp.SetBodyString(st.body)
	return nil
}

func newTestClient(t *stubTransport, maxRetries int) *Client {
	return newWithTransport(t, Config{
		Timeout:    time.Second,
		MaxRetries: maxRetries,
		RetryDelay: 0,
	}, zerolog.Nop())
}

func TestGetSuccess(t *testing.T) {
	tr := &stubTransport{steps: []step{{status: 200, body: `["EUW1_1"]`}}}
	c := newTestClient(tr, 3)

	body, err := c.Get(context.Background(), "https://remote/test", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `["EUW1_1"]` {
		t.Errorf("body = %q", body)
	}
	if tr.calls != 1 {
		t.Errorf("calls = %d, want 1", tr.calls)
	}
}

func TestGetAbsent(t *testing.T) {
	for _, status := range []int{404, 403} {
		tr := &stubTransport{steps: []step{{status: status}}}
		c := newTestClient(tr, 3)

		body, err := c.Get(context.Background(), "https://remote/test", nil)
		if err != nil {
			t.Fatalf("status %d: unexpected error: %v", status, err)
		}
		if body != nil {
			t.Errorf("status %d: body = %q, want nil", status, body)
		}
		if tr.calls != 1 {
			t.Errorf("status %d: calls = %d, want 1 (never retried)", status, tr.calls)
		}
	}
}

func TestGetRateLimitedExhaustsBudget(t *testing.T) {
	tr := &stubTransport{steps: []step{{status: 429}}}
	c := newTestClient(tr, 3)

	_, err := c.Get(context.Background(), "https://remote/test", nil)
	if KindOf(err) != KindRateLimited {
		t.Fatalf("kind = %v, want rate_limited (err: %v)", KindOf(err), err)
	}
	// attempts = 1 + retries
	if tr.calls != 4 {
		t.Errorf("calls = %d, want 4", tr.calls)
	}
	var fe *Error
	if !errors.As(err, &fe) || fe.Attempts != 4 {
		t.Errorf("attempts = %+v, want 4", fe)
	}
}

func TestGetRecoversAfterServerError(t *testing.T) {
	tr := &stubTransport{steps: []step{
		{status: 503},
		{err: errors.New("connection reset")},
		{status: 200, body: "ok"},
	}}
	c := newTestClient(tr, 3)

	body, err := c.Get(context.Background(), "https://remote/test", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
	if tr.calls != 3 {
		t.Errorf("calls = %d, want 3", tr.calls)
	}
}

func TestGetBadRequestTerminal(t *testing.T) {
	tr := &stubTransport{steps: []step{{status: 400, body: strings.Repeat("x", 500)}}}
	c := newTestClient(tr, 3)

	_, err := c.Get(context.Background(), "https://remote/test", nil)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("kind = %v, want bad_request", KindOf(err))
	}
	if tr.calls != 1 {
		t.Errorf("calls = %d, want 1 (never retried)", tr.calls)
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatal("not a *fetch.Error")
	}
	if fe.Status != 400 {
		t.Errorf("status = %d", fe.Status)
	}
	if len(fe.Body) != 200 {
		t.Errorf("body length = %d, want truncated to 200", len(fe.Body))
	}
}

func TestGetUnavailableExhaustsBudget(t *testing.T) {
	tr := &stubTransport{steps: []step{{err: errors.New("dial timeout")}}}
	c := newTestClient(tr, 2)

	_, err := c.Get(context.Background(), "https://remote/test", nil)
	if KindOf(err) != KindUnavailable {
		t.Fatalf("kind = %v, want unavailable", KindOf(err))
	}
	if tr.calls != 3 {
		t.Errorf("calls = %d, want 3", tr.calls)
	}
}

func TestGetContextCanceledStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := &stubTransport{steps: []step{{status: 503}}}
	c := newWithTransport(tr, Config{
		Timeout:    time.Second,
		MaxRetries: 5,
		RetryDelay: time.Hour,
	}, zerolog.Nop())

	_, err := c.Get(ctx, "https://remote/test", nil)
	if KindOf(err) != KindUnavailable {
		t.Fatalf("kind = %v, want unavailable", KindOf(err))
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
	if tr.calls != 1 {
		t.Errorf("calls = %d, want 1", tr.calls)
	}
}

func TestRateLimitInfoTracksHeaders(t *testing.T) {
	tr := &stubTransport{}
	tr.steps = []step{{status: 200, body: "{}"}}
	c := newTestClient(tr, 0)

	// stub does not set headers; defaults stay zero but UpdatedAt moves
	before := c.GetRateLimitInfo().UpdatedAt
	if _, err := c.Get(context.Background(), "https://remote/test", nil); err != nil {
		t.Fatal(err)
	}
	if !c.GetRateLimitInfo().UpdatedAt.After(before) {
		t.Error("rate limit info not updated on response")
	}
}
