// Package remotetest runs an in-memory stand-in for the remote content API.
// It signs real HS256 credentials, enforces bearer auth and the admin role on
// mutations, counts reads per resource, and lets tests inject failures.
package remotetest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-admin-console/internal/content"
	"go-admin-console/internal/model"
)

const maxMemory = 32 << 20

var errNotMultipart = errors.New("expected multipart form data")

type account struct {
	identity model.Identity
	password string
	created  time.Time
}

type failure struct {
	status  int
	message string
	times   int
}

type contextKey struct{}

type Server struct {
	srv    *httptest.Server
	secret []byte
	now    func() time.Time

	mu          sync.Mutex
	accounts    map[string]*account
	collections map[string][]model.Item
	leaders     map[string]*model.Item
	reads       map[string]int
	calls       map[string]int
	failures    map[string]*failure
}

// New starts a server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:      []byte("remotetest-" + uuid.NewString()),
		now:         time.Now,
		accounts:    map[string]*account{},
		collections: map[string][]model.Item{},
		leaders:     map[string]*model.Item{},
		reads:       map[string]int{},
		calls:       map[string]int{},
		failures:    map[string]*failure{},
	}
	for _, kind := range content.Collections {
		s.collections[kind.Name] = []model.Item{}
	}

	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the API base, including the /api segment.
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// AddUser registers an account that can log in and returns its identity.
func (s *Server) AddUser(name string, email string, password string, role string) model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity := model.Identity{ID: uuid.NewString(), Name: name, Email: email, Role: role}
	s.accounts[strings.ToLower(email)] = &account{identity: identity, password: password, created: s.now()}
	return identity
}

// Token signs a credential for identity that expires after ttl. A negative
// ttl yields an already expired credential.
func (s *Server) Token(identity model.Identity, ttl time.Duration) string {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   identity.ID,
		"name":  identity.Name,
		"email": identity.Email,
		"role":  identity.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Seed appends items to a collection, assigning ids to those without one.
func (s *Server) Seed(kind string, items ...model.Item) []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].Fields == nil {
			items[i].Fields = map[string]string{}
		}
	}
	s.collections[kind] = append(s.collections[kind], items...)
	return items
}

func (s *Server) SeedLeader(role string, item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.leaders[role] = &item
}

func (s *Server) Items(kind string) []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Item(nil), s.collections[kind]...)
}

func (s *Server) Leader(role string) *model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.leaders[role]
	if !ok {
		return nil
	}
	cp := *item
	return &cp
}

// Reads counts successful GETs of a resource, for example "about-details"
// or "leader-details/sarpanch".
func (s *Server) Reads(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reads[resource]
}

// Calls counts every request that reached the server for "METHOD /path",
// with the path relative to the API base.
func (s *Server) Calls(method string, p string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[method+" "+p]
}

// Fail makes the next times requests to "METHOD /path" answer status with
// message. times <= 0 fails every request.
func (s *Server) Fail(method string, p string, status int, message string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[method+" "+p] = &failure{status: status, message: message, times: times}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(s.track)
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/auth/me", s.me)
			r.With(s.requireAdmin).Get("/users", s.users)

			r.Get("/leader-details/{role}", s.getLeader)
			r.With(s.requireAdmin).Put("/leader-details/{role}", s.upsertLeader)
			r.With(s.requireAdmin).Delete("/leader-details/{role}", s.deleteLeader)

			r.Get("/{kind}", s.list)
			r.With(s.requireAdmin).Post("/{kind}", s.create)
			r.With(s.requireAdmin).Put("/{kind}/{id}", s.update)
			r.With(s.requireAdmin).Delete("/{kind}/{id}", s.remove)
		})
	})
	return r
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.calls[key]++
		f, ok := s.failures[key]
		if ok && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(s.failures, key)
			}
		}
		s.mu.Unlock()

		if ok {
			writeMessage(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		identity := model.Identity{}
		identity.ID, _ = claims["sub"].(string)
		identity.Name, _ = claims["name"].(string)
		identity.Email, _ = claims["email"].(string)
		identity.Role, _ = claims["role"].(string)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, identity)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := r.Context().Value(contextKey{}).(model.Identity)
		if identity.Role != model.RoleAdmin {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, model.AuthResponse{Token: s.Token(acc.identity, time.Hour), User: acc.identity})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	s.mu.Lock()
	_, exists := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if exists {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}

	role := req.Role
	if role == "" {
		role = "user"
	}
	identity := s.AddUser(req.Name, req.Email, req.Password, role)
	writeJSON(w, http.StatusCreated, model.AuthResponse{Token: s.Token(identity, time.Hour), User: identity})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	identity, _ := r.Context().Value(contextKey{}).(model.Identity)
	writeJSON(w, http.StatusOK, identity)
}

func (s *Server) users(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, map[string]any{
			"id":        acc.identity.ID,
			"name":      acc.identity.Name,
			"email":     acc.identity.Email,
			"role":      acc.identity.Role,
			"createdAt": acc.created.UTC().Format(time.RFC3339),
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	s.mu.Lock()
	items, ok := s.collections[kind]
	if ok {
		s.reads[kind]++
		items = append([]model.Item{}, items...)
	}
	s.mu.Unlock()

	if !ok {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.collectionKind(w, r)
	if !ok {
		return
	}

	item, err := decodeItem(r, kind, nil)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(item.Images()) == 0 {
		writeMessage(w, http.StatusBadRequest, "Image is required")
		return
	}
	item.ID = uuid.NewString()

	s.mu.Lock()
	s.collections[kind.Name] = append(s.collections[kind.Name], item)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.collectionKind(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := indexOf(s.collections[kind.Name], id)
	var existing model.Item
	if idx >= 0 {
		existing = s.collections[kind.Name][idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		writeMessage(w, http.StatusNotFound, "Item not found")
		return
	}

	item, err := decodeItem(r, kind, &existing)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	item.ID = id

	s.mu.Lock()
	if idx = indexOf(s.collections[kind.Name], id); idx >= 0 {
		s.collections[kind.Name][idx] = item
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, item)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.collectionKind(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	items := s.collections[kind.Name]
	idx := indexOf(items, id)
	if idx >= 0 {
		s.collections[kind.Name] = append(items[:idx:idx], items[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		writeMessage(w, http.StatusNotFound, "Item not found")
		return
	}
	writeMessage(w, http.StatusOK, "Deleted")
}

func (s *Server) getLeader(w http.ResponseWriter, r *http.Request) {
	role, ok := s.leaderRole(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	s.reads["leader-details/"+role]++
	item := s.leaders[role]
	s.mu.Unlock()

	if item == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) upsertLeader(w http.ResponseWriter, r *http.Request) {
	role, ok := s.leaderRole(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	existing := s.leaders[role]
	s.mu.Unlock()

	item, err := decodeItem(r, content.Leader, existing)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if item.ImagePath == "" {
		writeMessage(w, http.StatusBadRequest, "Image is required")
		return
	}
	if existing != nil {
		item.ID = existing.ID
	} else {
		item.ID = uuid.NewString()
	}
	item.Fields["role"] = role

	s.mu.Lock()
	s.leaders[role] = &item
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteLeader(w http.ResponseWriter, r *http.Request) {
	role, ok := s.leaderRole(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	_, existed := s.leaders[role]
	delete(s.leaders, role)
	s.mu.Unlock()

	if !existed {
		writeMessage(w, http.StatusNotFound, "Leader details not found")
		return
	}
	writeMessage(w, http.StatusOK, "Deleted")
}

func (s *Server) collectionKind(w http.ResponseWriter, r *http.Request) (content.Kind, bool) {
	kind, ok := content.LookupCollection(chi.URLParam(r, "kind"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not found")
	}
	return kind, ok
}

func (s *Server) leaderRole(w http.ResponseWriter, r *http.Request) (string, bool) {
	role, ok := content.LookupLeaderRole(chi.URLParam(r, "role"))
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Invalid role")
	}
	return role.Key, ok
}

// decodeItem reads a multipart save. Text fields replace the stored ones;
// images replace the stored ones only when files were sent.
func decodeItem(r *http.Request, kind content.Kind, existing *model.Item) (model.Item, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return model.Item{}, errNotMultipart
	}

	item := model.Item{Fields: map[string]string{}}
	if existing != nil {
		item.ImagePath = existing.ImagePath
		item.ImagePaths = append([]string(nil), existing.ImagePaths...)
	}

	for _, field := range kind.Fields {
		item.Fields[field.Name] = r.FormValue(field.Name)
	}

	files := r.MultipartForm.File[kind.Image.Field]
	if len(files) == 0 {
		return item, nil
	}

	paths := make([]string, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			return model.Item{}, err
		}
		_, _ = io.Copy(io.Discard, f)
		_ = f.Close()
		paths = append(paths, "/uploads/"+uuid.NewString()+path.Ext(header.Filename))
	}

	if kind.Image.Multiple {
		item.ImagePath, item.ImagePaths = "", paths
	} else {
		item.ImagePath, item.ImagePaths = paths[0], nil
	}
	return item, nil
}

func indexOf(items []model.Item, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
