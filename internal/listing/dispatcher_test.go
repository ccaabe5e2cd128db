package listing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-directory/internal/models"
)

type capturedRequest struct {
	Method      string
	Path        string
	ContentType string
	Auth        string
	Body        []byte
}

func newFilterServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if captured != nil {
			*captured = capturedRequest{
				Method:      r.Method,
				Path:        r.URL.Path,
				ContentType: r.Header.Get("Content-Type"),
				Auth:        r.Header.Get("Authorization"),
				Body:        raw,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDispatchBuildsRequest(t *testing.T) {
	var got capturedRequest
	srv := newFilterServer(t, http.StatusOK, `[]`, &got)
	d := NewDispatcher(srv.URL+"/", WithBearerToken("tok"))

	outcome := d.Dispatch(context.Background(), models.FilterRequest{Department: "CS", YearOfPassing: "2020"}, "  ali ")
	require.NoError(t, outcome.Err)
	assert.NotNil(t, outcome.Cards)
	assert.Empty(t, outcome.Cards)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, FilterPath, got.Path)
	assert.Equal(t, "application/json", got.ContentType)
	assert.Equal(t, "Bearer tok", got.Auth)
	assert.JSONEq(t, `{"department":"CS","course":"","year_of_passing":"2020","search_term":"  ali "}`, string(got.Body))
}

func TestDispatchDecodesCards(t *testing.T) {
	srv := newFilterServer(t, http.StatusOK, `[
		{"id":42,"name":"Ali K.","course":"B.Tech","department":"CS","passing_year":2020,"user_image":""},
		{"id":"7","name":"Bea","course":"MBA","department":"MGMT","passing_year":"2019","user_image":null}
	]`, nil)
	d := NewDispatcher(srv.URL)

	outcome := d.Dispatch(context.Background(), models.FilterRequest{}, "")
	require.NoError(t, outcome.Err)
	require.Len(t, outcome.Cards, 2)
	assert.Equal(t, models.FlexString("42"), outcome.Cards[0].ID)
	assert.Equal(t, models.FlexString("Bea"), outcome.Cards[1].Name)
	assert.Equal(t, uint64(1), outcome.Seq)
}

func TestDispatchFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not json", http.StatusOK, `<html>oops</html>`, ErrMalformedResponse},
		{"empty body", http.StatusOK, ``, ErrMalformedResponse},
		{"object instead of array", http.StatusOK, `{"error":"nope"}`, ErrMalformedResponse},
		{"array of scalars", http.StatusOK, `[1,2]`, ErrMalformedResponse},
		{"nested field", http.StatusOK, `[{"id":{"a":1}}]`, ErrMalformedResponse},
		{"server error", http.StatusInternalServerError, `[]`, ErrTransport},
		{"unauthorized", http.StatusUnauthorized, `{"error":{}}`, ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newFilterServer(t, tc.status, tc.body, nil)
			outcome := NewDispatcher(srv.URL).Dispatch(context.Background(), models.FilterRequest{}, "")
			assert.ErrorIs(t, outcome.Err, tc.want)
			assert.Nil(t, outcome.Cards)
		})
	}
}

func TestDispatchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	outcome := NewDispatcher(url).Dispatch(context.Background(), models.FilterRequest{}, "x")
	assert.ErrorIs(t, outcome.Err, ErrTransport)
}

func TestDispatchCancelledContext(t *testing.T) {
	srv := newFilterServer(t, http.StatusOK, `[]`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := NewDispatcher(srv.URL).Dispatch(ctx, models.FilterRequest{}, "")
	assert.ErrorIs(t, outcome.Err, ErrTransport)
}

func TestDispatchSingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	outcome := NewDispatcher(srv.URL).Dispatch(context.Background(), models.FilterRequest{}, "")
	require.Error(t, outcome.Err)
	assert.Equal(t, 1, calls)
}

func TestSequenceNumbers(t *testing.T) {
	d := NewDispatcher("http://unused.test")
	first := d.Next()
	assert.True(t, d.IsLatest(first))
	second := d.Next()
	assert.False(t, d.IsLatest(first))
	assert.True(t, d.IsLatest(second))
	assert.Greater(t, second, first)
}

func TestSearchRequestWireNames(t *testing.T) {
	raw, err := json.Marshal(models.FilterRequest{Department: "CS", Course: "", YearOfPassing: "2020", SearchTerm: "ali"})
	require.NoError(t, err)
	assert.Equal(t, `{"department":"CS","course":"","year_of_passing":"2020","search_term":"ali"}`, string(raw))
}

func TestDispatchRecordsMetrics(t *testing.T) {
	ok := newFilterServer(t, http.StatusOK, `[]`, nil)
	bad := newFilterServer(t, http.StatusOK, `{"cards":[]}`, nil)
	reg := prometheus.NewRegistry()

	NewDispatcher(ok.URL, WithMetrics(reg)).Dispatch(context.Background(), models.FilterRequest{}, "")
	NewDispatcher(bad.URL, WithMetrics(reg)).Dispatch(context.Background(), models.FilterRequest{}, "")

	count, err := testutil.GatherAndCount(reg, "listing_dispatch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
