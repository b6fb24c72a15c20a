// Package analytics turns transaction and budget snapshots into chart-ready
// structures. Every function here is pure: it reads only its arguments,
// never mutates them, and is safe for concurrent use.
package analytics

const (
	// DefaultMonthWindow is the number of trailing months kept in series and matrices
	DefaultMonthWindow = 6
	// DefaultMaxSeries caps the number of category series in a matrix
	DefaultMaxSeries = 5
)

// Options configures an Aggregator
type Options struct {
	Palette     Palette
	MonthWindow int
	MaxSeries   int
}

// DefaultOptions returns the options used by the mobile charts
func DefaultOptions() Options {
	return Options{
		Palette:     DefaultPalette,
		MonthWindow: DefaultMonthWindow,
		MaxSeries:   DefaultMaxSeries,
	}
}

// Aggregator builds category totals, monthly series and category-by-month
// matrices. It holds only immutable configuration.
type Aggregator struct {
	palette     Palette
	monthWindow int
	maxSeries   int
}

// NewAggregator creates an Aggregator, falling back to defaults for unset options
func NewAggregator(opts Options) *Aggregator {
	defaults := DefaultOptions()
	if len(opts.Palette) == 0 {
		opts.Palette = defaults.Palette
	}
	if opts.MonthWindow <= 0 {
		opts.MonthWindow = defaults.MonthWindow
	}
	if opts.MaxSeries <= 0 {
		opts.MaxSeries = defaults.MaxSeries
	}

	palette := make(Palette, len(opts.Palette))
	copy(palette, opts.Palette)

	return &Aggregator{
		palette:     palette,
		monthWindow: opts.MonthWindow,
		maxSeries:   opts.MaxSeries,
	}
}

// MonthWindow returns the configured trailing window size
func (a *Aggregator) MonthWindow() int {
	return a.monthWindow
}

// MaxSeries returns the configured series cap
func (a *Aggregator) MaxSeries() int {
	return a.maxSeries
}
