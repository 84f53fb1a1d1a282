package domain

import "time"

// Project is a loaded project: its root directory, elements and options.
type Project struct {
	Name     string
	Root     string
	Elements []Element
	Options  Options
}

// ErrorPolicy decides what the scheduler does after the first failure.
type ErrorPolicy string

const (
	// FailFast stops starting new jobs after the first failure.
	FailFast ErrorPolicy = "quit"
	// ContinueOnError keeps building everything that does not depend on a failure.
	ContinueOnError ErrorPolicy = "continue"
)

// MismatchPolicy decides how a commit of different content for a committed key is reported.
type MismatchPolicy string

const (
	// MismatchWarn logs the mismatch and keeps the committed artifact.
	MismatchWarn MismatchPolicy = "warn"
	// MismatchFail fails the build of the element.
	MismatchFail MismatchPolicy = "fail"
)

// Options holds project level engine settings.
type Options struct {
	Fetchers       int
	Builders       int
	Pushers        int
	NetworkRetries int
	RetryBackoff   time.Duration
	OnError        ErrorPolicy
	Strict         bool
	Quota          int64
	OnMismatch     MismatchPolicy
	Remote         RemoteOptions
}

// RemoteOptions configures the shared remote cache.
type RemoteOptions struct {
	URL       string
	Push      bool
	Token     string
	AccessKey string
	SecretKey string
	Region    string
}

// Enabled reports whether a remote cache is configured.
func (r RemoteOptions) Enabled() bool {
	return r.URL != ""
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		Fetchers:       10,
		Builders:       4,
		Pushers:        4,
		NetworkRetries: 2,
		RetryBackoff:   time.Second,
		OnError:        FailFast,
		Strict:         true,
		OnMismatch:     MismatchWarn,
	}
}
