package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gemstone08/circle/internal/polar"
)

// DefaultConfigPath is the path to the checked-in defaults file.
const DefaultConfigPath = "config/circle.defaults.json"

// Defaults applied by the Get* accessors when a field is unset.
const (
	DefaultTargetRadius   = 160.0
	DefaultScoreSlope     = 200.0
	DefaultDBPath         = "circle.db"
	DefaultSinkQueueSize  = 64
	DefaultSinkTimeout    = 5 * time.Second
	DefaultSheetWorksheet = "Sheet1"
	DefaultSheetName      = "CircleGameLog"
	DefaultSheetCredsPath = "service_account.json"
)

// Config is the explicit configuration handed to the HTTP layer and sinks.
// Fields are pointers so partial JSON files keep defaults for omitted keys.
type Config struct {
	// Scoring
	TargetRadius *float64 `json:"target_radius,omitempty"`
	ScoreSlope   *float64 `json:"score_slope,omitempty"`

	// Profile computation
	Bins            *int    `json:"bins,omitempty"`
	Aggregation     *string `json:"aggregation,omitempty"` // "median" or "mean"
	Smooth          *bool   `json:"smooth,omitempty"`
	SmoothHalfWidth *int    `json:"smooth_halfwidth,omitempty"`

	// Attempt log
	DBPath        *string `json:"db_path,omitempty"`
	SinkQueueSize *int    `json:"sink_queue_size,omitempty"`
	SinkTimeout   *string `json:"sink_timeout,omitempty"` // duration string like "5s"

	// Spreadsheet sink
	SheetEnabled   *bool   `json:"sheet_enabled,omitempty"`
	SheetCredsPath *string `json:"sheet_creds_path,omitempty"`
	SheetID        *string `json:"sheet_id,omitempty"`
	SheetName      *string `json:"sheet_name,omitempty"` // used when sheet_id is unset
	SheetWorksheet *string `json:"sheet_worksheet,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a Config with every field unset.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig reads a JSON config file. The path must end in .json and the
// file must be under 1MB.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Environment variables understood by ApplyEnv.
const (
	EnvTargetRadius   = "TARGET_R"
	EnvScoreSlope     = "SCORE_SLOPE"
	EnvSheetEnabled   = "SHEET_ENABLED"
	EnvSheetCredsPath = "SHEET_JSON_PATH"
	EnvSheetID        = "SHEET_ID"
	EnvSheetName      = "SHEET_NAME"
	EnvSheetWorksheet = "SHEET_WORKSHEET"
	EnvDBPath         = "CIRCLE_DB"
)

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv. Unparseable numeric values are reported, not ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTargetRadius); ok {
		f, err := parseFinite(EnvTargetRadius, v)
		if err != nil {
			return err
		}
		c.TargetRadius = ptrFloat64(f)
	}
	if v, ok := lookup(EnvScoreSlope); ok {
		f, err := parseFinite(EnvScoreSlope, v)
		if err != nil {
			return err
		}
		c.ScoreSlope = ptrFloat64(f)
	}
	if v, ok := lookup(EnvSheetEnabled); ok {
		c.SheetEnabled = ptrBool(strings.EqualFold(strings.TrimSpace(v), "true"))
	}
	if v, ok := lookup(EnvSheetCredsPath); ok && v != "" {
		c.SheetCredsPath = ptrString(v)
	}
	if v, ok := lookup(EnvSheetID); ok && v != "" {
		c.SheetID = ptrString(v)
	}
	if v, ok := lookup(EnvSheetName); ok && v != "" {
		c.SheetName = ptrString(v)
	}
	if v, ok := lookup(EnvSheetWorksheet); ok && v != "" {
		c.SheetWorksheet = ptrString(v)
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		c.DBPath = ptrString(v)
	}
	return nil
}

// parseFinite parses an environment value as a finite float. NaN and Inf
// would poison every metric downstream.
func parseFinite(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s %q: must be finite", name, v)
	}
	return f, nil
}

// Validate checks that set values are usable.
func (c *Config) Validate() error {
	if c.TargetRadius != nil {
		if v := *c.TargetRadius; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("target_radius must be finite and non-negative, got %f", v)
		}
	}
	if c.ScoreSlope != nil {
		if v := *c.ScoreSlope; math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("score_slope must be finite, got %f", v)
		}
	}
	if c.Bins != nil && *c.Bins < 1 {
		return fmt.Errorf("bins must be positive, got %d", *c.Bins)
	}
	if c.SmoothHalfWidth != nil && *c.SmoothHalfWidth < 0 {
		return fmt.Errorf("smooth_halfwidth must be non-negative, got %d", *c.SmoothHalfWidth)
	}
	if c.Aggregation != nil {
		if _, err := polar.ParseAggregation(*c.Aggregation); err != nil {
			return err
		}
	}
	if c.SinkQueueSize != nil && *c.SinkQueueSize < 1 {
		return fmt.Errorf("sink_queue_size must be positive, got %d", *c.SinkQueueSize)
	}
	if c.SinkTimeout != nil && *c.SinkTimeout != "" {
		if _, err := time.ParseDuration(*c.SinkTimeout); err != nil {
			return fmt.Errorf("invalid sink_timeout '%s': %w", *c.SinkTimeout, err)
		}
	}
	return nil
}

// GetTargetRadius returns the target_radius value or the default.
func (c *Config) GetTargetRadius() float64 {
	if c.TargetRadius == nil {
		return DefaultTargetRadius
	}
	return *c.TargetRadius
}

// GetScoreSlope returns the score_slope value or the default.
func (c *Config) GetScoreSlope() float64 {
	if c.ScoreSlope == nil {
		return DefaultScoreSlope
	}
	return *c.ScoreSlope
}

// GetBins returns the bins value or the default.
func (c *Config) GetBins() int {
	if c.Bins == nil {
		return polar.DefaultBins
	}
	return *c.Bins
}

// GetAggregation returns the aggregation mode, falling back to median.
func (c *Config) GetAggregation() polar.Aggregation {
	if c.Aggregation == nil {
		return polar.AggregateMedian
	}
	a, err := polar.ParseAggregation(*c.Aggregation)
	if err != nil {
		return polar.AggregateMedian
	}
	return a
}

// GetSmooth returns the smooth value or the default.
func (c *Config) GetSmooth() bool {
	if c.Smooth == nil {
		return true
	}
	return *c.Smooth
}

// GetSmoothHalfWidth returns the smooth_halfwidth value or the default.
func (c *Config) GetSmoothHalfWidth() int {
	if c.SmoothHalfWidth == nil {
		return polar.DefaultSmoothHalfWidth
	}
	return *c.SmoothHalfWidth
}

// PolarOptions returns the Compute options described by this config.
func (c *Config) PolarOptions() []polar.Option {
	return []polar.Option{
		polar.WithBins(c.GetBins()),
		polar.WithAggregation(c.GetAggregation()),
		polar.WithSmoothing(c.GetSmooth(), c.GetSmoothHalfWidth()),
	}
}

// GetDBPath returns the db_path value or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetSinkQueueSize returns the sink_queue_size value or the default.
func (c *Config) GetSinkQueueSize() int {
	if c.SinkQueueSize == nil {
		return DefaultSinkQueueSize
	}
	return *c.SinkQueueSize
}

// GetSinkTimeout parses and returns the SinkTimeout as a time.Duration.
func (c *Config) GetSinkTimeout() time.Duration {
	if c.SinkTimeout == nil || *c.SinkTimeout == "" {
		return DefaultSinkTimeout
	}
	d, err := time.ParseDuration(*c.SinkTimeout)
	if err != nil {
		return DefaultSinkTimeout
	}
	return d
}

// GetSheetEnabled returns the sheet_enabled value or the default (off).
func (c *Config) GetSheetEnabled() bool {
	if c.SheetEnabled == nil {
		return false
	}
	return *c.SheetEnabled
}

// GetSheetCredsPath returns the service account file path.
func (c *Config) GetSheetCredsPath() string {
	if c.SheetCredsPath == nil || *c.SheetCredsPath == "" {
		return DefaultSheetCredsPath
	}
	return *c.SheetCredsPath
}

// GetSheetID returns the spreadsheet ID, empty when unset.
func (c *Config) GetSheetID() string {
	if c.SheetID == nil {
		return ""
	}
	return *c.SheetID
}

// GetSheetName returns the spreadsheet title looked up when no ID is set.
func (c *Config) GetSheetName() string {
	if c.SheetName == nil || *c.SheetName == "" {
		return DefaultSheetName
	}
	return *c.SheetName
}

// GetSheetWorksheet returns the worksheet (tab) name.
func (c *Config) GetSheetWorksheet() string {
	if c.SheetWorksheet == nil || *c.SheetWorksheet == "" {
		return DefaultSheetWorksheet
	}
	return *c.SheetWorksheet
}
