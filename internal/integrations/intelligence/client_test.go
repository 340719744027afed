package intelligence

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"portal-genie/internal/domain"
)

// fakeTokenSource is a minimal TokenSource stub for use within this package.
type fakeTokenSource struct {
	token  string
	err    error
	onCall func()
}

func (f *fakeTokenSource) ServiceToken(_ context.Context, _ string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.token, f.err
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_EmptyBaseURL(t *testing.T) {
	_, err := NewClient("   ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "base URL")
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c, err := NewClient("http://ai.internal/")
	require.NoError(t, err)
	require.Equal(t, "http://ai.internal", c.baseURL)
}

func TestNewClient_TokenWithoutSource(t *testing.T) {
	_, err := NewClient("http://ai.internal", WithToken(nil, "/genie/token"))
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// resolveToken — caching behaviour
// ---------------------------------------------------------------------------

func TestResolveToken_FetchedOnce(t *testing.T) {
	calls := 0
	src := &fakeTokenSource{token: "svc-from-ssm"}
	src.onCall = func() { calls++ }
	c, err := NewClient("http://ai.internal", WithToken(src, "/genie/token"))
	require.NoError(t, err)

	token, err := c.resolveToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "svc-from-ssm", token)
	require.Equal(t, 1, calls)

	// subsequent calls must never hit SSM again
	_, _ = c.resolveToken(context.Background())
	_, _ = c.resolveToken(context.Background())
	require.Equal(t, 1, calls, "SSM must only be called once per process lifetime")
}

func TestResolveToken_NotConfigured(t *testing.T) {
	c, err := NewClient("http://ai.internal")
	require.NoError(t, err)
	token, err := c.resolveToken(context.Background())
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestResolveToken_SourceFailure(t *testing.T) {
	src := &fakeTokenSource{err: errors.New("parameter not found")}
	c, err := NewClient("http://ai.internal", WithToken(src, "/genie/token"))
	require.NoError(t, err)
	_, err = c.resolveToken(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolve service token")
}

// ---------------------------------------------------------------------------
// Ask
// ---------------------------------------------------------------------------

func TestAsk_HappyPath_MatchList(t *testing.T) {
	var gotBody askRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/assistant", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"query": "refund report",
			"matches": [
				{"reportId":"r-12","name":"Refund Summary","category":"Finance","description":"Refunds by day","score":0.91},
				{"reportId":"r-07","name":"Refund Detail","category":"Finance","description":"Line-level refunds","score":0.77}
			],
			"suggestedFilters": {"dates":[],"locations":[]}
		}`))
	}))
	defer srv.Close()

	src := &fakeTokenSource{token: "svc-token"}
	c, err := NewClient(srv.URL, WithToken(src, "/genie/token"))
	require.NoError(t, err)

	result, err := c.Ask(context.Background(), "refund report", 3)
	require.NoError(t, err)
	require.Equal(t, askRequest{Query: "refund report", TopK: 3}, gotBody)
	require.Equal(t, "Bearer svc-token", gotAuth)
	require.Len(t, result.Matches, 2)
	require.Equal(t, "r-12", result.Matches[0].ID)
	require.Equal(t, 0.91, result.Matches[0].Score)
}

func TestAsk_NoTokenConfigured_NoAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	result, err := c.Ask(context.Background(), "q", 3)
	require.NoError(t, err)
	require.Empty(t, gotAuth)
	require.Equal(t, "ok", result.Message)
}

func TestAsk_NonOKStatus_IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Ask(context.Background(), "q", 3)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	require.Contains(t, se.Body, "model not loaded")
}

func TestAsk_Timeout_IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithHTTPClient(&http.Client{Timeout: 30 * time.Millisecond}))
	require.NoError(t, err)
	_, err = c.Ask(context.Background(), "q", 3)

	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestAsk_ConnectionRefused_IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // deliberately unreachable

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Ask(context.Background(), "q", 3)

	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestAsk_MalformedBody_IsNotTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Ask(context.Background(), "q", 3)
	require.Error(t, err)

	var te *TransportError
	require.False(t, errors.As(err, &te), "decode failures are not transport failures")
}

// ---------------------------------------------------------------------------
// Feedback
// ---------------------------------------------------------------------------

func TestFeedback_ForwardsEventVerbatim(t *testing.T) {
	var gotRaw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/feedback", r.URL.Path)
		gotRaw, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"stored":true}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	result, err := c.Feedback(context.Background(), domain.FeedbackEvent{
		Query:    "refund report",
		MatchIDs: []string{"r-12", "r-07"},
		Verdict:  domain.VerdictPositive,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"query":"refund report","matches":["r-12","r-07"],"feedback":"positive"}`, string(gotRaw))
	require.JSONEq(t, `{"stored":true}`, string(result))
}

func TestFeedback_NonOKStatus_IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Feedback(context.Background(), domain.FeedbackEvent{Query: "q", Verdict: domain.VerdictNegative})

	var te *TransportError
	require.ErrorAs(t, err, &te)
}
