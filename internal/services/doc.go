// Package services defines the [Catalog] interface for the remote YouTube Music library and implements it over the ytmusicapi proxy.
//
// # Catalog Interface
//
// The sync engine depends only on [Catalog]; tests substitute an in-memory fake.
//
// # YouTube Music Implementation
//
// [YouTubeService] communicates with the FastAPI proxy server wrapping ytmusicapi.
//
// The proxy handles YouTube Music authentication complexities.
// The auth file path is sent via the X-Auth-File header on each request.
// Every request waits on a [rate.Limiter] first, so bursts of playlist edits stay
// under the remote quota.
//
// # Statuses and Errors
//
// Mutating calls return a [Status]; only [StatusSucceeded] counts as success and
// deciding what to do with anything else is the caller's job.
// A returned error means the request itself failed:
//   - [shared.ErrAPIRequest] : transport failure, non-2xx response or undecodable body
//   - [shared.ErrMissingCredentials] : Authenticate called without an auth file
//
// Nothing in this package retries.
package services
