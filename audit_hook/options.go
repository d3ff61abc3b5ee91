package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithSkip drops events for the named actions. Unknown names are ignored.
func WithSkip(actions ...string) Option {
	return func(e *Extension) {
		if e.skip == nil {
			e.skip = make(map[string]bool, len(actions))
		}
		for _, act := range actions {
			e.skip[act] = true
		}
	}
}

// WithMinSeverity drops events below severity. An unknown severity keeps
// everything.
func WithMinSeverity(severity string) Option {
	return func(e *Extension) {
		e.minRank = severityRank[severity]
	}
}

var severityRank = map[string]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}
