// Package geo resolves free-text city names to countries and carries the
// read-only city to LinkedIn geoId reference table.
package geo
