package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStandardClient(t *testing.T) {
	t.Parallel()

	assert.Same(t, http.DefaultClient, NewStandardClient(nil))
	custom := &http.Client{}
	assert.Same(t, custom, NewStandardClient(custom))
}

func TestPostJSONRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		WriteJSONOK(w, map[string]int{"doubled": in["n"] * 2})
	}))
	defer srv.Close()

	var out struct {
		Doubled int `json:"doubled"`
	}
	require.NoError(t, PostJSON(context.Background(), NewStandardClient(srv.Client()), srv.URL, map[string]int{"n": 21}, &out))
	assert.Equal(t, 42, out.Doubled)
}

func TestPostJSONWithMock(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPClient().
		AddResponse(http.StatusUnprocessableEntity, `{"ok":false,"error":"too few points"}`).
		AddErrorResponse(errors.New("connection refused")).
		AddResponse(http.StatusOK, `not json`)

	err := PostJSON(context.Background(), mock, "http://circle/submit", map[string]string{"k": "v"}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Contains(t, se.Body, "too few points")

	assert.ErrorContains(t, PostJSON(context.Background(), mock, "http://circle/submit", 1, nil), "connection refused")

	var out map[string]interface{}
	assert.ErrorContains(t, PostJSON(context.Background(), mock, "http://circle/submit", 1, &out), "decode")

	// queue exhausted: empty 200
	assert.NoError(t, PostJSON(context.Background(), mock, "http://circle/submit", 1, nil))

	require.Len(t, mock.Requests, 4)
	assert.JSONEq(t, `{"k":"v"}`, string(mock.Bodies[0]))
	assert.Equal(t, "/submit", mock.Requests[0].URL.Path)
}

func TestMockHTTPClientNilBody(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPClient().AddResponse(http.StatusTeapot, "short and stout")
	req, err := http.NewRequest(http.MethodGet, "http://circle/", nil)
	require.NoError(t, err)
	resp, err := mock.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", string(body))
}
