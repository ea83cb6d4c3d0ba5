// ABOUTME: In-memory fake of the legisbot backend: users, tokens, contexts, chat, history, stats
// ABOUTME: Serves the same JSON/HTTP contract as the real backend under /api

package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/auth"
)

// Prefix is where every route is mounted.
const Prefix = "/api"

// Options configures a Server.
type Options struct {
	// Secret signs tokens. A random secret is used when empty.
	Secret []byte
	// TokenTTL is the lifetime of issued tokens. Defaults to 30 minutes.
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     *zap.Logger
}

// AnswerFunc produces the response to a chat query.
type AnswerFunc func(query string, contextName string) (answer string, sources []api.Source)

// Upload records one received document.
type Upload struct {
	Filename    string
	ContextName string
	Size        int
	Uploader    string
}

type account struct {
	user    api.User
	hash    []byte
	profile *api.Profile
}

type hook struct {
	status  int
	latency time.Duration
}

// Server is the fake backend. It implements http.Handler.
type Server struct {
	issuer   *auth.JWTIssuer
	tokenTTL time.Duration
	cost     int
	logger   *zap.Logger
	handler  http.Handler

	mu         sync.Mutex
	accounts   map[string]*account // by email
	nextUserID int64
	contexts   []api.Context
	sessions   map[string][]api.HistorySession // by email
	nextSessID int64
	nextMsgID  int64
	uploads    []Upload
	answer     AnswerFunc
	hooks      map[string]hook
	hits       map[string]int
	now        func() time.Time
}

// New creates a Server.
func New(opts Options) *Server {
	secret := opts.Secret
	if len(secret) == 0 {
		secret = []byte(uuid.NewString())
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		issuer:   auth.NewJWTIssuer(secret),
		tokenTTL: ttl,
		cost:     cost,
		logger:   logger.Named("fake-backend"),
		accounts: make(map[string]*account),
		sessions: make(map[string][]api.HistorySession),
		answer:   EchoAnswer,
		hooks:    make(map[string]hook),
		hits:     make(map[string]int),
		now:      time.Now,
	}
	s.handler = s.withHooks(s.routes())
	return s
}

// Start serves a new Server on an httptest listener that closes with t.
// It returns the server and the base URL to hand to api.New.
func Start(t testing.TB, opts Options) (*Server, string) {
	t.Helper()
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.MinCost
	}
	s := New(opts)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts.URL + Prefix
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	authed := auth.Middleware(s.issuer, s.roleOf)
	admin := func(h http.HandlerFunc) http.Handler { return authed(auth.RequireAdmin(h)) }

	mux.HandleFunc("POST "+Prefix+"/auth/token", s.handleToken)
	mux.HandleFunc("POST "+Prefix+"/auth/register", s.handleRegister)
	mux.Handle("GET "+Prefix+"/auth/users/me", authed(http.HandlerFunc(s.handleMe)))
	mux.Handle("POST "+Prefix+"/auth/onboarding", authed(http.HandlerFunc(s.handleOnboarding)))
	mux.Handle("GET "+Prefix+"/documents/contexts", authed(http.HandlerFunc(s.handleContexts)))
	mux.Handle("POST "+Prefix+"/documents/upload", admin(s.handleUpload))
	mux.Handle("POST "+Prefix+"/chat/query", authed(http.HandlerFunc(s.handleQuery)))
	mux.Handle("GET "+Prefix+"/chat/history", authed(http.HandlerFunc(s.handleHistory)))
	mux.Handle("GET "+Prefix+"/admin/stats/demographics", admin(s.handleDemographics))
	mux.Handle("GET "+Prefix+"/admin/stats/usage", admin(s.handleUsage))
	mux.Handle("GET "+Prefix+"/admin/stats/top-queries", admin(s.handleTopQueries))
	return mux
}

// withHooks counts hits and applies injected latency and failures.
func (s *Server) withHooks(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, Prefix)

		s.mu.Lock()
		s.hits[path]++
		h := s.hooks[path]
		s.mu.Unlock()

		s.logger.Debug("request", zap.String("method", r.Method), zap.String("path", path))

		if h.latency > 0 {
			select {
			case <-time.After(h.latency):
			case <-r.Context().Done():
				return
			}
		}
		if h.status != 0 {
			auth.WriteError(w, h.status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddUser creates an account directly and returns its record.
func (s *Server) AddUser(email, password string, role api.Role, onboarded bool) (*api.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		return nil, fmt.Errorf("user %s already exists", email)
	}
	s.nextUserID++
	acc := &account{
		user: api.User{ID: s.nextUserID, Email: email, Role: role, OnboardingComplete: onboarded},
		hash: hash,
	}
	s.accounts[email] = acc
	u := acc.user
	return &u, nil
}

// AddContext registers a document context.
func (s *Server) AddContext(id api.ContextID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts = append(s.contexts, api.Context{ID: id, Name: name})
}

// IssueToken returns a valid token for email without a password exchange.
func (s *Server) IssueToken(email string) (string, error) {
	role, ok := s.roleOf(email)
	if !ok {
		return "", fmt.Errorf("unknown user %s", email)
	}
	return s.issuer.Generate(email, role, s.tokenTTL)
}

// SetAnswer replaces the chat answer generator.
func (s *Server) SetAnswer(fn AnswerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = fn
}

// FailPath makes every request to path (relative to Prefix) fail with
// status. A status of zero clears the failure.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hooks[path]
	h.status = status
	s.hooks[path] = h
}

// DelayPath delays every request to path by d.
func (s *Server) DelayPath(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hooks[path]
	h.latency = d
	s.hooks[path] = h
}

// Hits returns how many requests reached path, including failed ones.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Uploads returns the documents received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.uploads)
}

// EchoAnswer is the default answer: the question echoed back in Markdown.
func EchoAnswer(query, contextName string) (string, []api.Source) {
	scope := contextName
	if scope == "" {
		scope = "todos los contextos"
	}
	answer := fmt.Sprintf("**Respuesta simulada** (%s)\n\n> %s", scope, query)
	return answer, []api.Source{{"source": "corpus.pdf", "page": 1}}
}

func (s *Server) roleOf(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[email]
	if !ok {
		return "", false
	}
	return string(acc.user.Role), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func subject(r *http.Request) string {
	if id := auth.FromContext(r.Context()); id != nil {
		return id.Subject
	}
	return ""
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		auth.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		auth.WriteError(w, http.StatusUnauthorized, "Email o contraseña incorrectos")
		return
	}

	token, err := s.issuer.Generate(email, string(acc.user.Role), s.tokenTTL)
	if err != nil {
		auth.WriteError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg api.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		auth.WriteError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if reg.Email == "" || reg.Password == "" {
		auth.WriteError(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	user, err := s.AddUser(reg.Email, reg.Password, api.RoleMember, false)
	if err != nil {
		auth.WriteError(w, http.StatusBadRequest, "El email ya está registrado")
		return
	}
	s.mu.Lock()
	s.accounts[reg.Email].user.DisplayName = reg.Name
	user.DisplayName = reg.Name
	s.mu.Unlock()

	token, err := s.issuer.Generate(user.Email, string(user.Role), s.tokenTTL)
	if err != nil {
		auth.WriteError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, api.AuthResult{AccessToken: token, TokenType: "bearer", User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acc := s.accounts[subject(r)]
	u := acc.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	var profile api.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		auth.WriteError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if err := api.Validate(profile); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body"}, "msg": err.Error()}},
		})
		return
	}

	s.mu.Lock()
	acc := s.accounts[subject(r)]
	if acc.user.OnboardingComplete {
		s.mu.Unlock()
		auth.WriteError(w, http.StatusBadRequest, "El usuario ya completó el onboarding")
		return
	}
	acc.profile = &profile
	acc.user.OnboardingComplete = true
	if acc.user.DisplayName == "" {
		acc.user.DisplayName = profile.FirstName + " " + profile.LastName
	}
	u := acc.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleContexts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	contexts := slices.Clone(s.contexts)
	s.mu.Unlock()
	if contexts == nil {
		contexts = []api.Context{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"contexts": contexts})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		auth.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		auth.WriteError(w, http.StatusBadRequest, "No se enviaron archivos.")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		auth.WriteError(w, http.StatusBadRequest, "could not read file")
		return
	}
	if !strings.EqualFold(filepath.Ext(hdr.Filename), ".pdf") {
		auth.WriteError(w, http.StatusBadRequest, "Solo se aceptan archivos PDF.")
		return
	}

	contextName := strings.TrimSpace(r.FormValue("contextName"))
	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{
		Filename:    hdr.Filename,
		ContextName: contextName,
		Size:        len(data),
		Uploader:    subject(r),
	})
	if contextName != "" && !slices.ContainsFunc(s.contexts, func(c api.Context) bool { return c.Name == contextName }) {
		s.contexts = append(s.contexts, api.Context{ID: api.ContextID(uuid.NewString()), Name: contextName})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.UploadResult{
		Message:        fmt.Sprintf("Se procesaron 1 archivo(s): %s", hdr.Filename),
		ProcessedFiles: []string{hdr.Filename},
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		auth.WriteError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		auth.WriteError(w, http.StatusUnprocessableEntity, "query is required")
		return
	}

	email := subject(r)
	s.mu.Lock()
	contextName := ""
	for _, c := range s.contexts {
		if c.ID == req.ContextID {
			contextName = c.Name
		}
	}
	answerFn := s.answer
	s.mu.Unlock()

	answer, sources := answerFn(req.Query, contextName)

	s.mu.Lock()
	historyID := s.record(email, req.HistoryID, req.Query, answer, sources)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.ChatResponse{Answer: answer, Sources: sources, HistoryID: historyID})
}

// record appends an exchange to a session, opening one when historyID is
// nil or unknown. Callers hold s.mu.
func (s *Server) record(email string, historyID *int64, query, answer string, sources []api.Source) int64 {
	now := api.Timestamp{Time: s.now().UTC()}
	sessions := s.sessions[email]

	idx := -1
	if historyID != nil {
		idx = slices.IndexFunc(sessions, func(h api.HistorySession) bool { return h.ID == *historyID })
	}
	if idx < 0 {
		s.nextSessID++
		sessions = append(sessions, api.HistorySession{ID: s.nextSessID, CreatedAt: now})
		idx = len(sessions) - 1
	}

	s.nextMsgID++
	userMsg := api.HistoryMessage{ID: s.nextMsgID, Content: query, Sender: api.SenderUser, Timestamp: now}
	s.nextMsgID++
	botMsg := api.HistoryMessage{ID: s.nextMsgID, Content: answer, Sender: api.SenderBot, Sources: sources, Timestamp: now}
	sessions[idx].Messages = append(sessions[idx].Messages, userMsg, botMsg)

	s.sessions[email] = sessions
	return sessions[idx].ID
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sessions := slices.Clone(s.sessions[subject(r)])
	s.mu.Unlock()
	if sessions == nil {
		sessions = []api.HistorySession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDemographics(w http.ResponseWriter, r *http.Request) {
	groupBy := r.URL.Query().Get("group_by")

	counts := make(map[string]int)
	s.mu.Lock()
	for _, acc := range s.accounts {
		if acc.profile == nil {
			continue
		}
		key := acc.profile.Country
		if groupBy == api.GroupByOccupation {
			key = acc.profile.Occupation
		}
		if key != "" {
			counts[key]++
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, sortedCounts(counts, 0))
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	perDay := make(map[string]int)
	s.forEachUserMessage(func(m api.HistoryMessage) {
		perDay[m.Timestamp.Format("2006-01-02")]++
	})

	days := make([]api.DailyCount, 0, len(perDay))
	for day, n := range perDay {
		days = append(days, api.DailyCount{Date: day, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })
	if len(days) > 30 {
		days = days[:30]
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleTopQueries(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	s.forEachUserMessage(func(m api.HistoryMessage) {
		counts[m.Content]++
	})
	writeJSON(w, http.StatusOK, sortedCounts(counts, 20))
}

func (s *Server) forEachUserMessage(fn func(api.HistoryMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sessions := range s.sessions {
		for _, h := range sessions {
			for _, m := range h.Messages {
				if m.Sender == api.SenderUser {
					fn(m)
				}
			}
		}
	}
}

// sortedCounts orders by count descending, then group; limit 0 keeps all.
func sortedCounts(counts map[string]int, limit int) []api.GroupCount {
	out := make([]api.GroupCount, 0, len(counts))
	for g, n := range counts {
		out = append(out, api.GroupCount{Group: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Group < out[j].Group
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Reset drops all chat history. Users and contexts are kept.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string][]api.HistorySession)
	s.uploads = nil
}
