package api

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"gonum.org/v1/plot/vg"

	"github.com/gemstone08/circle/internal/httputil"
	"github.com/gemstone08/circle/internal/polar"
	"github.com/gemstone08/circle/internal/report"
	"github.com/gemstone08/circle/internal/scoring"
	"github.com/gemstone08/circle/internal/sink"
	"github.com/gemstone08/circle/internal/version"
)

// Submission is the body posted by the tracing page.
type Submission struct {
	Points    []polar.Point `json:"points"`
	Center    *polar.Center `json:"center"`
	ClientW   int           `json:"client_w"`
	ClientH   int           `json:"client_h"`
	DurationS float64       `json:"duration_s"`
}

// SubmitResponse is returned by /submit.
type SubmitResponse struct {
	OK        bool    `json:"ok"`
	Score     int     `json:"score"`
	DurationS float64 `json:"duration_s"`
}

// AnalyzeResponse is the full result returned by /api/analyze. SigmaRel is
// null when the reference radius is zero.
type AnalyzeResponse struct {
	OK        bool      `json:"ok"`
	Score     int       `json:"score"`
	RRef      float64   `json:"R_ref"`
	Sigma     float64   `json:"sigma"`
	SigmaRel  *float64  `json:"sigma_rel"`
	MAE       float64   `json:"mae"`
	MaxAbs    float64   `json:"max_abs"`
	NumPoints int       `json:"num_points"`
	Profile   []float64 `json:"rho_theta"`
	ThetaBins []float64 `json:"theta_bins"`
}

// score decodes a submission and runs the profile computation. On failure it
// has already written the error response.
func (s *Server) score(w http.ResponseWriter, r *http.Request) (*Submission, *polar.Statistics, int, bool) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return nil, nil, 0, false
	}

	var sub Submission
	if err := httputil.DecodeJSON(w, r, &sub); err != nil {
		httputil.BadRequest(w, err.Error())
		return nil, nil, 0, false
	}
	if sub.Center == nil {
		httputil.BadRequest(w, "center is required")
		return nil, nil, 0, false
	}

	stats, err := polar.Compute(sub.Points, *sub.Center, s.cfg.GetTargetRadius(), s.cfg.PolarOptions()...)
	if err != nil {
		var optErr *polar.OptionError
		switch {
		case errors.Is(err, polar.ErrInsufficientData):
			httputil.UnprocessableEntity(w, err.Error())
		case errors.As(err, &optErr):
			httputil.InternalServerError(w, fmt.Sprintf("server misconfigured: %v", err))
		default:
			httputil.InternalServerError(w, err.Error())
		}
		return nil, nil, 0, false
	}
	return &sub, stats, scoring.Score(stats.SigmaRel, s.cfg.GetScoreSlope()), true
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, stats, score, ok := s.score(w, r)
	if !ok {
		return
	}

	if s.notifier != nil {
		s.notifier.Notify(sink.Row{
			ID:        uuid.NewString(),
			Timestamp: s.clock.Now(),
			Score:     score,
			DurationS: sub.DurationS,
			Sigma:     stats.Sigma,
			SigmaRel:  stats.SigmaRel,
			NumPoints: len(sub.Points),
			ClientW:   sub.ClientW,
			ClientH:   sub.ClientH,
		})
	}

	httputil.WriteJSONOK(w, SubmitResponse{OK: true, Score: score, DurationS: sub.DurationS})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sub, stats, score, ok := s.score(w, r)
	if !ok {
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		resp := AnalyzeResponse{
			OK:        true,
			Score:     score,
			RRef:      stats.RRef,
			Sigma:     stats.Sigma,
			MAE:       stats.MAE,
			MaxAbs:    stats.MaxAbs,
			NumPoints: len(sub.Points),
			Profile:   stats.Profile,
			ThetaBins: stats.ThetaBins,
		}
		if !math.IsInf(stats.SigmaRel, 0) {
			v := stats.SigmaRel
			resp.SigmaRel = &v
		}
		httputil.WriteJSONOK(w, resp)
	case "html":
		var buf bytes.Buffer
		if err := report.RenderHTML(&buf, stats, score); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	case "png":
		var buf bytes.Buffer
		if err := report.RenderPNG(&buf, stats, score, 10*vg.Inch, 4*vg.Inch); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to render plot: %v", err))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown format %q", format))
	}
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.attempts == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "attempt log disabled")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 1000 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	attempts, err := s.attempts.RecentAttempts(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve attempts: %v", err))
		return
	}
	httputil.WriteJSONOK(w, attempts)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"target_radius":    s.cfg.GetTargetRadius(),
		"score_slope":      s.cfg.GetScoreSlope(),
		"bins":             s.cfg.GetBins(),
		"aggregation":      s.cfg.GetAggregation(),
		"smooth":           s.cfg.GetSmooth(),
		"smooth_halfwidth": s.cfg.GetSmoothHalfWidth(),
		"min_points":       polar.MinPoints,
		"version":          version.Version,
	})
}
