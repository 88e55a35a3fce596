// Package server exposes the REST surface: bookmark CRUD, search, and
// a health probe.
//
// All /api/v1 routes require a bearer token; the resolved user id
// scopes every operation. Domain errors map to status codes in one
// place so handlers stay thin.
package server
