// Package httputil provides HTTP utilities for the REST API.
//
// # Overview
//
// This package provides infrastructure shared by all API handlers:
//
//   - [JSON]: Consistent JSON response writing
//   - [Error]: Error responses with status codes mapped from error codes
//   - [Decode]: Request body decoding with a size cap
//   - [RequestLogger], [Recover]: Router middleware for structured
//     request logging and panic containment
//
// # Error Responses
//
// [Error] converts any error into a JSON envelope:
//
//	{"error": "simulation sim_1 not found", "code": "SIMULATION_NOT_FOUND"}
//
// The HTTP status is derived from the structured error code (see
// [StatusCode]): validation failures map to 400, lookup failures to 404,
// conflicts to 409, and everything else to 500. Errors without a code
// are treated as internal.
//
// # Middleware
//
// Middleware uses the standard func(http.Handler) http.Handler shape,
// so it composes with chi's Use:
//
//	r := chi.NewRouter()
//	r.Use(httputil.RequestLogger(logger))
//	r.Use(httputil.Recover(logger))
package httputil
