// Package api implements the HTTP boundary: request decoding and
// validation, job submission and status endpoints, the server-sent
// event stream, artifact downloads, and the mapping of internal errors
// to safe HTTP responses.
package api
