// Package api exposes the search pipeline over HTTP. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/searches runs one search and returns the ranked jobs.
//   - GET /v1/searches/latest returns the most recent run's jobs.
package api
