package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/gemstone08/circle/internal/api"
	"github.com/gemstone08/circle/internal/config"
	"github.com/gemstone08/circle/internal/fsutil"
	"github.com/gemstone08/circle/internal/httputil"
	"github.com/gemstone08/circle/internal/polar"
	"github.com/gemstone08/circle/internal/report"
	"github.com/gemstone08/circle/internal/scoring"
)

// Options controls a single scoring run.
type Options struct {
	HTMLPath  string
	PNGPath   string
	SubmitURL string
	// Client posts to SubmitURL. Nil means http.DefaultClient.
	Client httputil.HTTPClient
	// FS receives the reports. Nil means the real filesystem.
	FS fsutil.FileSystem
}

// ReadSubmission parses a recorded /submit body.
func ReadSubmission(r io.Reader) (*api.Submission, error) {
	var sub api.Submission
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sub); err != nil {
		return nil, fmt.Errorf("failed to parse trace: %w", err)
	}
	if sub.Center == nil {
		return nil, errors.New("trace has no center")
	}
	return &sub, nil
}

// LoadSubmission reads a trace file from fsys.
func LoadSubmission(fsys fsutil.FileSystem, path string) (*api.Submission, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadSubmission(bytes.NewReader(data))
}

// RunTrace scores sub locally, prints the statistics to out and writes any
// requested reports. With SubmitURL set the trace is also posted to a
// running server and its score printed alongside.
func RunTrace(ctx context.Context, cfg *config.Config, sub *api.Submission, opts Options, out io.Writer) (int, error) {
	stats, err := polar.Compute(sub.Points, *sub.Center, cfg.GetTargetRadius(), cfg.PolarOptions()...)
	if err != nil {
		return 0, err
	}
	score := scoring.Score(stats.SigmaRel, cfg.GetScoreSlope())
	fsys := opts.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}

	fmt.Fprintf(out, "points:    %d\n", len(sub.Points))
	fmt.Fprintf(out, "R_ref:     %.2f\n", stats.RRef)
	fmt.Fprintf(out, "sigma:     %.4f\n", stats.Sigma)
	fmt.Fprintf(out, "sigma_rel: %.6f\n", stats.SigmaRel)
	fmt.Fprintf(out, "mae:       %.4f\n", stats.MAE)
	fmt.Fprintf(out, "max_abs:   %.4f\n", stats.MaxAbs)
	fmt.Fprintf(out, "score:     %d\n", score)

	if opts.HTMLPath != "" {
		if err := writeFile(fsys, opts.HTMLPath, func(w io.Writer) error { return report.RenderHTML(w, stats, score) }); err != nil {
			return score, err
		}
	}
	if opts.PNGPath != "" {
		if err := writeFile(fsys, opts.PNGPath, func(w io.Writer) error {
			return report.RenderPNG(w, stats, score, 10*vg.Inch, 4*vg.Inch)
		}); err != nil {
			return score, err
		}
	}

	if opts.SubmitURL != "" {
		client := opts.Client
		if client == nil {
			client = httputil.NewStandardClient(nil)
		}
		var resp api.SubmitResponse
		if err := httputil.PostJSON(ctx, client, opts.SubmitURL, sub, &resp); err != nil {
			return score, fmt.Errorf("failed to submit trace: %w", err)
		}
		fmt.Fprintf(out, "server:    %d\n", resp.Score)
	}
	return score, nil
}

func writeFile(fsys fsutil.FileSystem, path string, render func(io.Writer) error) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return f.Close()
}
