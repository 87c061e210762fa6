package core

import (
	"errors"
	"fmt"
)

var (
	CookieFileNotFound = errors.New("cookie file not found")
	// the cookie file exists but a line in it doesn't have the shape
	// the format promises
	MalformedCookieFile = errors.New("malformed cookie file")
	// the cookie file is fine but the cookies in it no longer grant
	// access to the platform
	InvalidCookies = errors.New("cookies were rejected by the platform")

	UnsupportedMethod = errors.New("unsupported http method")
)

// StatusError is returned for any non-success response.
type StatusError struct {
	Code int
	Url  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.Url)
}
