package domain

import "fmt"

// TransientFetchError marks a failed request for a single topic or article.
// It is logged and counted; the run continues without the affected item.
type TransientFetchError struct {
	Topic string
	Err   error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("fetch topic %s: %v", e.Topic, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// ModelInitError means the sentiment service is unreachable. Fatal: sentiment
// is a required output field, so the run aborts before loading.
type ModelInitError struct {
	Err error
}

func (e *ModelInitError) Error() string {
	return fmt.Sprintf("sentiment model unavailable: %v", e.Err)
}

func (e *ModelInitError) Unwrap() error { return e.Err }

// LoadError means the destination write failed or persisted an unexpected
// number of rows. Fatal; no partial commit is assumed.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load destination: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConfigError reports a missing required configuration value. The run fails
// fast before extraction starts.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Field)
}
