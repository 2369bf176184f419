package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Nil", nil, "None"},
		{"SeedInvalid", fmt.Errorf("%w: %q", ErrInvalidSeedURL, "bogus"), "Seed_Invalid"},
		{"HostResolution", fmt.Errorf("%w: %q", ErrHostResolution, "http:///x"), "Network_HostResolution"},
		{"TransportTimeout", fmt.Errorf("%w: %w", ErrTransport, errors.New("context deadline exceeded")), "Transport_Timeout"},
		{"TransportRefused", fmt.Errorf("%w: %w", ErrTransport, errors.New("dial tcp: connection refused")), "Transport_ConnectionRefused"},
		{"TransportDNS", fmt.Errorf("%w: %w", ErrTransport, errors.New("lookup x: no such host")), "Transport_DNSLookup"},
		{"TransportOther", fmt.Errorf("%w: %w", ErrTransport, errors.New("connection reset by peer")), "Transport_Other"},
		{"RequestCreation", fmt.Errorf("%w: bad url", ErrRequestCreation), "Internal_RequestCreation"},
		{"BodyRead", fmt.Errorf("%w: truncated", ErrResponseBodyRead), "Network_BodyRead"},
		{"Decode", fmt.Errorf("%w: %q", ErrDecode, "http://a.test/"), "Content_Decode"},
		{"ConfigValidation", fmt.Errorf("%w: bad depth", ErrConfigValidation), "Config_Validation"},
		{"ContextCanceled", context.Canceled, "System_ContextCanceled"},
		{"ContextDeadline", context.DeadlineExceeded, "System_ContextDeadlineExceeded"},
		{"BareRefused", errors.New("dial tcp 127.0.0.1:1: connection refused"), "Network_ConnectionRefused"},
		{"Unknown", errors.New("something odd"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestCategorizeError_WrappingPreserved(t *testing.T) {
	wrapped := fmt.Errorf("crawling branch: %w", fmt.Errorf("%w: %q", ErrDecode, "http://a.test/"))
	if got := CategorizeError(wrapped); got != "Content_Decode" {
		t.Errorf("CategorizeError through extra wrapping = %q, want Content_Decode", got)
	}
}
