package domain

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// MaxShortCodeLength bounds caller-supplied short codes
const MaxShortCodeLength = 64

// ValidateURL checks that target is an absolute http(s) URL
func ValidateURL(target string) error {
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}

	parsedURL, err := url.ParseRequestURI(target)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %v", ErrInvalidInput, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: only http and https urls are supported", ErrInvalidInput)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%w: url must include a host", ErrInvalidInput)
	}

	return nil
}

// ValidateShortCode checks that code can be used as a single URL path segment
func ValidateShortCode(code string) error {
	if code == "" {
		return fmt.Errorf("%w: short code is required", ErrInvalidInput)
	}
	if len(code) > MaxShortCodeLength {
		return fmt.Errorf("%w: short code longer than %d characters", ErrInvalidInput, MaxShortCodeLength)
	}
	for _, r := range code {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune("/?#", r) {
			return fmt.Errorf("%w: short code contains invalid character %q", ErrInvalidInput, r)
		}
	}
	return nil
}
