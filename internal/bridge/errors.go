package bridge

import (
	"fmt"
	"strings"
)

// StartError reports that the worker process could not be spawned at all.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("worker start failed: %v", e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// ExitError reports a worker that ran but exited non-zero. Stderr carries
// the captured diagnostic stream, possibly truncated.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = "no stderr output"
	}
	return fmt.Sprintf("worker exited with code %d: %s", e.Code, detail)
}

// ResultParseError reports a zero-exit worker whose result body was not a
// single valid JSON value.
type ResultParseError struct {
	Body string
	Err  error
}

func (e *ResultParseError) Error() string {
	return fmt.Sprintf("parse worker result: %v", e.Err)
}

func (e *ResultParseError) Unwrap() error {
	return e.Err
}
