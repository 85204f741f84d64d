// Package testutil runs a fake portal backend for client tests: real HTTP,
// real tokens, in-memory state. Tests control users, items and failure
// injection directly.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avoronin/portalctl/internal/models"
	"github.com/avoronin/portalctl/internal/tokenstore"
)

const (
	secretKey = "portal-test-secret"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

type backendUser struct {
	user     models.User
	password string
}

type refreshRecord struct {
	email     string
	expiresAt time.Time
	used      bool
}

// Backend is the fake portal API.
type Backend struct {
	Server *httptest.Server

	// Access token lifetime for issued pairs
	AccessTTL time.Duration

	mu         sync.Mutex
	users      map[string]*backendUser
	items      []models.Item
	refresh    map[string]*refreshRecord
	failItems  bool
	loginCalls int
}

func NewBackend() *Backend {
	b := &Backend{
		AccessTTL: defaultAccessTTL,
		users:     make(map[string]*backendUser),
		refresh:   make(map[string]*refreshRecord),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/access-token", b.handleAccessToken)
	mux.HandleFunc("POST /api/v1/auth/register", b.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/refresh-token", b.handleRefreshToken)
	mux.HandleFunc("GET /api/v1/users/me", b.handleMe)
	mux.HandleFunc("DELETE /api/v1/users/me", b.handleDeleteMe)
	mux.HandleFunc("POST /api/v1/users/reset-password", b.handleResetPassword)
	mux.HandleFunc("GET /api/v1/users/", b.handleListUsers)
	mux.HandleFunc("POST /api/v1/users/", b.handleCreateUser)
	mux.HandleFunc("DELETE /api/v1/users/{id}", b.handleDeleteUser)
	mux.HandleFunc("GET /api/v1/items/", b.handleListItems)
	mux.HandleFunc("POST /api/v1/items/", b.handleCreateItem)
	mux.HandleFunc("GET /health", b.handleHealth)

	b.Server = httptest.NewServer(mux)
	return b
}

func (b *Backend) URL() string { return b.Server.URL }
func (b *Backend) Close()      { b.Server.Close() }

// AddUser seeds a user. IsAdmin is set independently from the role, so tests
// can exercise diverging admin signals.
func (b *Backend) AddUser(email, password string, role models.Role, isAdmin bool) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	user := models.User{
		UserID:  uuid.New(),
		Email:   email,
		Role:    role,
		IsAdmin: isAdmin,
	}
	b.users[email] = &backendUser{user: user, password: password}
	return user
}

// RemoveUser drops a seeded user. Tokens issued for it keep verifying but the
// user lookup starts failing, like a deleted account with a live session.
func (b *Backend) RemoveUser(email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, email)
}

// AddItem seeds an item.
func (b *Backend) AddItem(title, description string, owner uuid.UUID) models.Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	item := models.Item{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		OwnerID:     owner,
	}
	b.items = append(b.items, item)
	return item
}

// FailItems makes the item endpoints answer 500 until turned off.
func (b *Backend) FailItems(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failItems = fail
}

// LoginCalls returns how many times the access-token endpoint was hit.
func (b *Backend) LoginCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loginCalls
}

// IssuePair mints a valid token pair for a seeded user, bypassing the login
// endpoint. Handy for tests that start with a stored session.
func (b *Backend) IssuePair(email string) tokenstore.Pair {
	b.mu.Lock()
	defer b.mu.Unlock()

	access, expiresAt := b.issueAccess(email, b.AccessTTL)
	refresh := b.issueRefresh(email)
	return tokenstore.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Unix(expiresAt, 0),
	}
}

// ExpiredPair mints a pair whose access token is already expired but whose
// refresh token is still good.
func (b *Backend) ExpiredPair(email string) tokenstore.Pair {
	b.mu.Lock()
	defer b.mu.Unlock()

	access, expiresAt := b.issueAccess(email, -time.Minute)
	refresh := b.issueRefresh(email)
	return tokenstore.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Unix(expiresAt, 0),
	}
}

// issueAccess and issueRefresh expect b.mu to be held

func (b *Backend) issueAccess(email string, ttl time.Duration) (string, int64) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	access, err := token.SignedString([]byte(secretKey))
	if err != nil {
		panic(err) // deterministic inputs, cannot fail
	}
	return access, expiresAt.Unix()
}

func (b *Backend) issueRefresh(email string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	refresh := hex.EncodeToString(buf)

	b.refresh[refresh] = &refreshRecord{
		email:     email,
		expiresAt: time.Now().Add(defaultRefreshTTL),
	}
	return refresh
}

func (b *Backend) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed form body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginCalls++

	u, ok := b.users[r.PostFormValue("username")]
	if !ok || u.password != r.PostFormValue("password") {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	b.writeTokenPair(w, u.user.Email)
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	role := models.RoleViewer
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid role")
			return
		}
		role = parsed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email address already used")
		return
	}

	user := models.User{
		UserID:  uuid.New(),
		Email:   req.Email,
		Role:    role,
		IsAdmin: role == models.RoleAdmin,
	}
	b.users[req.Email] = &backendUser{user: user, password: req.Password}

	writeJSON(w, http.StatusCreated, user)
}

func (b *Backend) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.refresh[req.RefreshToken]
	if !ok || rec.used || rec.expiresAt.Before(time.Now()) {
		writeDetail(w, http.StatusNotFound, "Refresh token not found")
		return
	}
	rec.used = true

	b.writeTokenPair(w, rec.email)
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u.user)
}

func (b *Backend) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	delete(b.users, u.user.Email)
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	b.mu.Lock()
	u.password = req.Password
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}

	b.mu.Lock()
	users := make([]models.User, 0, len(b.users))
	for _, u := range b.users {
		users = append(users, u.user)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, models.List[models.User]{Data: users, Count: len(users)})
}

func (b *Backend) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	b.handleRegister(w, r)
}

func (b *Backend) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for email, u := range b.users {
		if u.user.UserID == id {
			delete(b.users, email)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (b *Backend) handleListItems(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r); !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failItems {
		writeDetail(w, http.StatusInternalServerError, "Item storage unavailable")
		return
	}

	items := make([]models.Item, len(b.items))
	copy(items, b.items)
	writeJSON(w, http.StatusOK, models.List[models.Item]{Data: items, Count: len(items)})
}

func (b *Backend) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failItems {
		writeDetail(w, http.StatusInternalServerError, "Item storage unavailable")
		return
	}

	item := models.Item{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     u.user.UserID,
	}
	b.items = append(b.items, item)

	writeJSON(w, http.StatusCreated, item)
}

func (b *Backend) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeTokenPair expects b.mu to be held
func (b *Backend) writeTokenPair(w http.ResponseWriter, email string) {
	access, expiresAt := b.issueAccess(email, b.AccessTTL)
	refresh := b.issueRefresh(email)

	writeJSON(w, http.StatusOK, map[string]any{
		"token_type":               "Bearer",
		"access_token":             access,
		"expires_at":               expiresAt,
		"refresh_token":            refresh,
		"refresh_token_expires_at": time.Now().Add(defaultRefreshTTL).Unix(),
	})
}

func (b *Backend) authenticate(w http.ResponseWriter, r *http.Request) (*backendUser, bool) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return []byte(secretKey), nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[claims.Subject]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "User no longer exists")
		return nil, false
	}
	return u, true
}

func (b *Backend) requireAdmin(w http.ResponseWriter, r *http.Request) (*backendUser, bool) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return nil, false
	}
	if !u.user.Admin() {
		writeDetail(w, http.StatusForbidden, "Insufficient privileges")
		return nil, false
	}
	return u, true
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
