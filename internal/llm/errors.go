package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorKind classifies errors returned while building or using a client.
type ErrorKind int

const (
	// KindOther is any failure that re-entering the API key cannot fix.
	KindOther ErrorKind = iota
	// KindAuth means the provider rejected the API key.
	KindAuth
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	default:
		return "other"
	}
}

const codeInvalidAPIKey = "invalid_api_key"

// authMarkers are matched against the error text when the status and code
// do not already identify an auth failure.
var authMarkers = []string{"AuthenticationError", codeInvalidAPIKey}

// Classify reports whether err is an authentication failure. A 401 status or
// the invalid_api_key code decides it; otherwise the error text is searched
// for authMarkers, so a proxy answering 400 or 403 with an auth message still
// counts.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return KindAuth
		}
		if code, ok := apiErr.Code.(string); ok && code == codeInvalidAPIKey {
			return KindAuth
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized {
			return KindAuth
		}
	}

	msg := err.Error()
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return KindAuth
		}
	}
	return KindOther
}

// IsAuthError is shorthand for Classify(err) == KindAuth.
func IsAuthError(err error) bool {
	return Classify(err) == KindAuth
}
