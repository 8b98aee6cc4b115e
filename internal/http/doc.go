// Package http provides the HTTP client used to fetch tile-server imagery.
//
// The Client in this package handles:
//   - User-Agent headers
//   - HTTP basic auth for protected imagery
//   - Timeout handling
//   - Typed non-200 responses (StatusError)
//
// # Basic Usage
//
//	client := http.NewClient(http.WithTimeout(30 * time.Second))
//
//	data, err := client.Get(ctx, "https://tiles.example.com/14/100/200.jpg")
//	var se *http.StatusError
//	if errors.As(err, &se) && !se.Temporary() {
//	    // 404 and friends: do not retry
//	}
package http
