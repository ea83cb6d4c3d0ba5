// Package auth issues and checks the HS256 bearer tokens used by the
// development backend, and lets the CLI peek at a stored token.
//
// # Tokens
//
// Tokens are HS256 JWTs whose "sub" claim is the user's email, the same
// shape the production backend issues:
//
//	issuer := auth.NewJWTIssuer(secret)
//	token, err := issuer.Generate("ana@example.com", "admin", time.Hour)
//
// # Inspect
//
// Inspect decodes a token without verifying its signature. The client has
// no secret, so the result is for display only ("expires in 12m"). Whether a
// token is accepted is always decided by the backend.
//
// # HTTP middleware
//
// Middleware verifies the bearer token and attaches an Identity to the
// request context; RequireAdmin rejects non-admins with 403. Failures use the
// backend's {"detail": "..."} error body.
package auth
