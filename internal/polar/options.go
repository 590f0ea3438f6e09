package polar

import "fmt"

// Aggregation selects how the radii inside one bin are summarised.
type Aggregation string

const (
	AggregateMedian Aggregation = "median"
	AggregateMean   Aggregation = "mean"
)

// ParseAggregation accepts "median" or "mean"; the empty string means median.
func ParseAggregation(s string) (Aggregation, error) {
	switch Aggregation(s) {
	case "", AggregateMedian:
		return AggregateMedian, nil
	case AggregateMean:
		return AggregateMean, nil
	default:
		return "", &OptionError{Field: "aggregation", Reason: fmt.Sprintf("unknown mode %q", s)}
	}
}

// OptionError reports an unusable Compute option.
type OptionError struct {
	Field  string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type options struct {
	bins        int
	aggregation Aggregation
	smooth      bool
	halfWidth   int
}

func defaultOptions() options {
	return options{
		bins:        DefaultBins,
		aggregation: AggregateMedian,
		smooth:      true,
		halfWidth:   DefaultSmoothHalfWidth,
	}
}

func (o options) validate() error {
	if o.bins < 1 {
		return &OptionError{Field: "bins", Reason: fmt.Sprintf("must be positive, got %d", o.bins)}
	}
	if o.halfWidth < 0 {
		return &OptionError{Field: "smooth_halfwidth", Reason: fmt.Sprintf("must be non-negative, got %d", o.halfWidth)}
	}
	if _, err := ParseAggregation(string(o.aggregation)); err != nil {
		return err
	}
	return nil
}

// Option tunes a single Compute call.
type Option func(*options)

// WithBins sets the number of angular bins.
func WithBins(n int) Option {
	return func(o *options) { o.bins = n }
}

// WithAggregation selects median or mean per-bin aggregation.
func WithAggregation(a Aggregation) Option {
	return func(o *options) { o.aggregation = a }
}

// WithSmoothing enables or disables circular smoothing and sets its half-width.
// A half-width of zero leaves the gap-filled profile untouched.
func WithSmoothing(enabled bool, halfWidth int) Option {
	return func(o *options) {
		o.smooth = enabled
		o.halfWidth = halfWidth
	}
}
