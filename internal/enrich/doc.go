// Package enrich looks up company size and specialties on LinkedIn company
// pages and caches the outcome per normalized company key for one run.
package enrich
