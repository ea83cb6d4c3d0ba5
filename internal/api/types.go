// ABOUTME: Wire types for the legisbot backend: users, auth results, chat, history and stats
// ABOUTME: Tolerant decoders for roles, context ids and naive backend timestamps

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the authorization class of a user.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// UnmarshalText accepts the backend's "user" as a member role.
func (r *Role) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "admin":
		*r = RoleAdmin
	case "member", "user", "":
		*r = RoleMember
	default:
		return fmt.Errorf("unknown role %q", string(b))
	}
	return nil
}

// User is the authenticated user's record as returned by /auth/users/me.
type User struct {
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	DisplayName        string `json:"name,omitempty"`
	Role               Role   `json:"role"`
	OnboardingComplete bool   `json:"onboardingComplete"`
}

// IsAdmin reports whether the user may see admin-only views.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Label is the name shown in headers: display name, else email.
func (u *User) Label() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// AuthResult is the body returned by /auth/register.
type AuthResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

// Registration is the new-account form.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Profile is the one-time onboarding form. Field names are the backend's.
type Profile struct {
	FirstName  string `json:"nombre" validate:"required"`
	LastName   string `json:"apellido" validate:"required"`
	Country    string `json:"pais" validate:"required"`
	Province   string `json:"provincia" validate:"required,province"`
	Locality   string `json:"localidad" validate:"required"`
	Age        int    `json:"edad" validate:"required"`
	Occupation string `json:"profesion" validate:"required"`
}

// ContextID is a document context identifier. The backend sends either a
// string or a number depending on the store behind it.
type ContextID string

func (id *ContextID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ContextID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("context id: %w", err)
	}
	*id = ContextID(n.String())
	return nil
}

// Context is a named, selectable document collection.
type Context struct {
	ID   ContextID `json:"id"`
	Name string    `json:"name"`
}

type contextsEnvelope struct {
	Contexts []Context `json:"contexts"`
}

// ChatRequest is the body of /chat/query. HistoryID is always sent, as null
// when starting a fresh exchange.
type ChatRequest struct {
	Query     string    `json:"query"`
	HistoryID *int64    `json:"history_id"`
	ContextID ContextID `json:"context_id,omitempty"`
}

// Source is a citation attached to an answer. The backend sends loosely
// shaped objects so it stays a map.
type Source map[string]any

// Label picks the most descriptive field of a source for display.
func (s Source) Label() string {
	name := firstString(s, "title", "source", "filename", "document", "name")
	if name == "" {
		return "fuente"
	}
	if page, ok := s["page"]; ok && page != nil {
		return fmt.Sprintf("%s (p. %v)", name, page)
	}
	return name
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ChatResponse is the answer to a query.
type ChatResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources,omitempty"`
	HistoryID int64    `json:"history_id,omitempty"`
}

// Timestamp decodes the backend's datetimes, which may lack a zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Sender values in history messages.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// HistoryMessage is one message of a past chat session.
type HistoryMessage struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Sources   []Source  `json:"sources,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

// HistorySession is one past chat session with its messages.
type HistorySession struct {
	ID        int64            `json:"id"`
	CreatedAt Timestamp        `json:"created_at"`
	Messages  []HistoryMessage `json:"messages"`
}

// UploadResult is the backend's confirmation of a document upload.
type UploadResult struct {
	Message        string   `json:"message"`
	ProcessedFiles []string `json:"processed_files,omitempty"`
}

// GroupCount is one bar of a grouped statistic.
type GroupCount struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// DailyCount is one point of the usage series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Demographic groupings accepted by /admin/stats/demographics.
const (
	GroupByCountry    = "pais"
	GroupByOccupation = "profesion"
)
