package registry

import (
	"fmt"
	"sort"
	"strings"
)

type (
	FailedRequestError struct {
		httpCode int
		method   string
		path     string
		message  string
	}
	UnknownRequestError struct{ reason string }

	// AmbiguousNameError is returned by Match when more than one registry
	// car shares a name. The first car listed with each name is still used.
	AmbiguousNameError struct {
		Duplicates map[string][]string
	}
)

// StatusCode returns the HTTP status the registry responded with.
func (err *FailedRequestError) StatusCode() int { return err.httpCode }

func (err *FailedRequestError) Error() string {
	return fmt.Sprintf("request failure %s(%s) (HTTP %d): %s", err.method, err.path, err.httpCode, err.message)
}

func (err *UnknownRequestError) Error() string {
	return fmt.Sprintf("unknown error occurred while communicating with registry: %s", err.reason)
}

func (err *AmbiguousNameError) Error() string {
	names := make([]string, 0, len(err.Duplicates))
	for name := range err.Duplicates {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%q -> [%s]", name, strings.Join(err.Duplicates[name], ", ")))
	}

	return fmt.Sprintf("registry lists multiple cars with the same name: %s", strings.Join(parts, "; "))
}
