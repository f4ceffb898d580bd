// Package environment manages isolated Python virtual environments.
//
// An environment is a self-contained interpreter installation with its own
// dependency set, located at a dedicated filesystem path. The package covers
// the full environment lifecycle: normalizing dependency lists into
// comparable sets, provisioning environments with uv, and caching named
// environments for reuse across requests.
//
// The Cache guarantees that at most one provisioning runs per name at any
// time, while requests for unrelated names never contend. Ephemeral
// (unnamed) environments bypass the cache entirely; callers provision them
// into private temp directories and destroy them when done.
package environment
