// Package auth resolves the OAuth2 bearer token gcompute sends to the compute
// API, and provides the token helpers the fake compute API uses to check it.
//
// # Token Resolution
//
// The token is looked up in order:
//
//  1. The --access_token flag (or GCOMPUTE_ACCESS_TOKEN)
//  2. The credentials file (--credentials_file, default ~/.gcompute/credentials)
//
// The credentials file is either a bare token or YAML:
//
//	access_token: ya29.example
//
// # Token Validation
//
// Validation uses constant-time comparison to prevent timing attacks:
//
//	if auth.Validate(provided, expected) {
//	    // Authentication successful
//	}
package auth
