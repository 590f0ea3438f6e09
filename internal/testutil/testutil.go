// Package testutil provides shared test fixtures: synthetic traces and
// HTTP request helpers.
package testutil

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gemstone08/circle/internal/polar"
)

// CirclePoints returns n points evenly spaced on a circle of radius r around c.
func CirclePoints(n int, r float64, c polar.Center) []polar.Point {
	return ShapePoints(n, c, func(float64) float64 { return r })
}

// ShapePoints samples n evenly spaced angles and places each point at
// radius(theta) from c.
func ShapePoints(n int, c polar.Center, radius func(theta float64) float64) []polar.Point {
	pts := make([]polar.Point, n)
	for i := range pts {
		th := 2 * math.Pi * float64(i) / float64(n)
		r := radius(th)
		pts[i] = polar.Point{X: c.X + r*math.Cos(th), Y: c.Y + r*math.Sin(th)}
	}
	return pts
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewJSONRequest builds a test request with body marshalled as JSON.
func NewJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}
