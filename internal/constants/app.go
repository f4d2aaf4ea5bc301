// Package constants centralizes tuning values shared across packages.
package constants

import "time"

// HTTP client tuning
const (
	// HTTPDialTimeout - TCP connect timeout
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - TCP keep-alive interval
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPIdleConnTimeout - how long idle connections are kept pooled
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - extended for slow networks
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - for HTTP 100-continue
	HTTPExpectContinueTimeout = 5 * time.Second
)

// API retry tuning for the retryablehttp client wrapping all IRIDA calls.
const (
	APIRetryMax     = 5
	APIRetryWaitMin = 1 * time.Second
	APIRetryWaitMax = 30 * time.Second
)
