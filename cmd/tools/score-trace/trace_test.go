package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone08/circle/internal/api"
	"github.com/gemstone08/circle/internal/config"
	"github.com/gemstone08/circle/internal/fsutil"
	"github.com/gemstone08/circle/internal/httputil"
	"github.com/gemstone08/circle/internal/polar"
	"github.com/gemstone08/circle/internal/testutil"
)

func traceJSON(t *testing.T, n int, r float64) string {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"points":     testutil.CirclePoints(n, r, polar.Center{X: 400, Y: 300}),
		"center":     polar.Center{X: 400, Y: 300},
		"duration_s": 1.5,
	})
	require.NoError(t, err)
	return string(body)
}

func TestReadSubmission(t *testing.T) {
	sub, err := ReadSubmission(strings.NewReader(traceJSON(t, 30, 160)))
	require.NoError(t, err)
	assert.Len(t, sub.Points, 30)
	assert.Equal(t, 1.5, sub.DurationS)

	_, err = ReadSubmission(strings.NewReader(`{"points": []}`))
	assert.ErrorContains(t, err, "center")

	_, err = ReadSubmission(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestRunTraceWritesReports(t *testing.T) {
	sub, err := ReadSubmission(strings.NewReader(traceJSON(t, 120, 100)))
	require.NoError(t, err)

	dir := t.TempDir()
	var out bytes.Buffer
	score, err := RunTrace(context.Background(), config.EmptyConfig(), sub, Options{
		HTMLPath: filepath.Join(dir, "trace.html"),
		PNGPath:  filepath.Join(dir, "trace.png"),
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 25, score)
	assert.Contains(t, out.String(), "score:     25")
	assert.Contains(t, out.String(), "sigma_rel: 0.375000")

	for _, name := range []string{"trace.html", "trace.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestRunTraceMemoryFS(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("traces/alice.json", []byte(traceJSON(t, 60, 160)))

	sub, err := LoadSubmission(fsys, "traces/alice.json")
	require.NoError(t, err)

	_, err = RunTrace(context.Background(), config.EmptyConfig(), sub, Options{
		HTMLPath: "reports/alice.html",
		FS:       fsys,
	}, &bytes.Buffer{})
	require.NoError(t, err)

	html, err := fsys.ReadFile("reports/alice.html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Radial profile")

	_, err = LoadSubmission(fsys, "traces/bob.json")
	assert.Error(t, err)
}

func TestRunTraceInsufficientData(t *testing.T) {
	sub, err := ReadSubmission(strings.NewReader(traceJSON(t, 10, 160)))
	require.NoError(t, err)

	_, err = RunTrace(context.Background(), config.EmptyConfig(), sub, Options{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, polar.ErrInsufficientData)
}

func TestRunTraceSubmits(t *testing.T) {
	sub, err := ReadSubmission(strings.NewReader(traceJSON(t, 40, 160)))
	require.NoError(t, err)

	client := httputil.NewMockHTTPClient().AddResponse(200, `{"ok":true,"score":100,"duration_s":1.5}`)
	var out bytes.Buffer
	score, err := RunTrace(context.Background(), config.EmptyConfig(), sub, Options{
		SubmitURL: "http://circle.local/submit",
		Client:    client,
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
	assert.Contains(t, out.String(), "server:    100")

	require.Len(t, client.Bodies, 1)
	var posted api.Submission
	require.NoError(t, json.Unmarshal(client.Bodies[0], &posted))
	assert.Len(t, posted.Points, 40)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"score":99,"duration_s":1.5}`))
	}))
	defer srv.Close()
	out.Reset()
	_, err = RunTrace(context.Background(), config.EmptyConfig(), sub, Options{SubmitURL: srv.URL + "/submit"}, &out)
	require.NoError(t, err, "a nil client falls back to the default client")
	assert.Contains(t, out.String(), "server:    99")

	failing := httputil.NewMockHTTPClient().AddErrorResponse(errors.New("connection refused"))
	_, err = RunTrace(context.Background(), config.EmptyConfig(), sub, Options{
		SubmitURL: "http://circle.local/submit",
		Client:    failing,
	}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "connection refused")
}
