// Package api is the HTTP client for the legisbot document Q&A backend.
//
// # Overview
//
// The backend is a black box reached over JSON/HTTP. This package owns the
// wire shapes and converts every failure into either a transport error or an
// *APIError carrying the status code and the backend's message.
//
// # Authentication
//
// Authenticated requests carry the persisted token as a bearer credential:
//
//	Authorization: Bearer <token>
//
// The token is read from a credential.Reader on every request through an
// oauth2.Transport, so the client never caches or writes it. Login uses the
// OAuth2 resource-owner password grant against /auth/token, which is the
// form-encoded username/password exchange the backend implements.
//
// # Endpoints
//
//   - GET  /auth/users/me          current user
//   - POST /auth/token             password grant, returns access_token
//   - POST /auth/register          new account, returns token + user
//   - POST /auth/onboarding        profile step, returns updated user
//   - GET  /documents/contexts     selectable document contexts
//   - POST /documents/upload       admin PDF upload (multipart)
//   - POST /chat/query             ask a question
//   - GET  /chat/history           past chat sessions
//   - GET  /admin/stats/...        admin usage statistics
//
// # Errors
//
// Status codes map onto sentinels so callers can branch without parsing:
//
//	if errors.Is(err, api.ErrUnauthorized) { ... }
package api
