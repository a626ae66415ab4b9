// Package httputil provides HTTP plumbing shared by the backend client.
//
// # Overview
//
//   - [Policy]: retry with fixed or exponential backoff
//   - [CheckStatus]: status code to structured error mapping
//   - [NewHTTPClient]: client with a bounded request timeout
//
// # Retry
//
// Only errors wrapped with [RetryableError] are retried. [CheckStatus]
// marks 5xx and 429 responses retryable and [TransportError] does the same
// for connection failures, so a fetch function composes directly:
//
//	err := httputil.DefaultPolicy.Do(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.TransportError(err)
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp.StatusCode)
//	})
//
// Waiting between attempts honours ctx cancellation.
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Max attempts: 3
//   - Base delay: 1 second, doubling
//   - Request timeout: 10 seconds
package httputil
