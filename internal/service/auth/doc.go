// Package auth issues and validates the HMAC-signed access tokens that
// identify a learner to the HTTP API.
package auth
