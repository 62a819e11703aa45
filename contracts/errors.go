package contracts

import "fmt"

// ConfigError reports an invalid datasource configuration. Construction
// fails outright; no partial datasource is produced.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration: " + e.Reason
}

// DecodeError wraps a backend failure for one slide file. It carries the
// path so the caller can report or retry that file without touching the
// rest of the batch.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
