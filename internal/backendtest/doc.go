// Package backendtest is an in-memory implementation of the legisbot backend
// HTTP contract, for tests and local development.
//
// It keeps users (bcrypt-hashed passwords), HS256 bearer tokens, document
// contexts, chat history and usage statistics in memory and answers every
// question with a canned Markdown echo. Hooks inject failures and latency
// per path so client code can be exercised against slow or broken backends.
//
//	srv, baseURL := backendtest.Start(t, backendtest.Options{})
//	srv.AddUser("ana@example.com", "secret1", api.RoleMember, true)
//	client := api.New(api.Options{BaseURL: baseURL, Credentials: store})
//
// All routes live under /api, matching the default base URL layout.
package backendtest
