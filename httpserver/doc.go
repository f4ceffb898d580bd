// Package httpserver provides the JSON HTTP transport.
//
// The httpserver package exposes the execution service over a small REST
// surface: POST /execute accepts {"code": ..., "lib": [...], "name": ...}
// and always answers with {"output": ..., "error": ...}; execution failures
// are reported inside the body with a 200 status, not as transport errors.
// GET / returns service information.
package httpserver
