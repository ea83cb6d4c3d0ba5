// Package session owns the authenticated identity of the running client.
//
// A Manager is created with Loading set. Bootstrap resolves the persisted
// credential exactly once per process: with no token it finishes without a
// network call, with a token it asks the backend who the token belongs to and
// drops the token if that fails for any reason.
//
// The Manager is the only writer of the credential slot. Everything else
// (the API client's transport) holds a read-only credential.Reader.
//
// There is no change subscription. Views read Snapshot on every render and
// feed it to route.Decide.
package session
