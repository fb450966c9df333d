package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"media-editor/internal/auth"
	"media-editor/internal/logging"
	"media-editor/internal/users"
)

// TokenQueryParam carries the access token on WebSocket upgrades, where
// browsers cannot set an Authorization header.
const TokenQueryParam = "token"

type contextKey struct{ name string }

var userIDKey = &contextKey{"user-id"}

// CredentialsRequest is the body of register and login requests.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries a freshly issued access token.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// VerifyResponse reports whether a token is acceptable.
type VerifyResponse struct {
	IsValid bool `json:"isValid"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register creates an account from an email and password.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	_, err := h.auth.Register(r.Context(), creds)
	switch {
	case err == nil:
		writeJSONResponse(w, http.StatusCreated, MessageResponse{Message: "User created successfully"})
	case errors.Is(err, users.ErrDuplicateUser):
		writeJSONError(w, "User already exists", http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidInput):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		logging.Error("Registration failed: %v", err)
		writeJSONError(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Login exchanges valid credentials for an access token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.auth.Login(r.Context(), creds)
	switch {
	case err == nil:
		writeJSONResponse(w, http.StatusOK, LoginResponse{AccessToken: token})
	case errors.Is(err, users.ErrNotFound):
		writeJSONError(w, "User not found", http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredential):
		writeJSONError(w, "Invalid password", http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidInput):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		logging.Error("Login failed: %v", err)
		writeJSONError(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// VerifyToken reports whether the request's bearer token is valid. It is not
// wrapped by RequireToken: a missing or bad token is an answer, not an error.
func (h *Handlers) VerifyToken(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ParseBearer(r.Header.Get("Authorization"))
	if err == nil {
		_, err = h.auth.Verify(token)
	}
	if err != nil {
		logging.Debug("Token verification failed: %v", err)
		writeJSONResponse(w, http.StatusBadRequest, VerifyResponse{IsValid: false})
		return
	}
	writeJSONResponse(w, http.StatusOK, VerifyResponse{IsValid: true})
}

// RequireToken rejects requests without a valid bearer token. A missing token
// yields 401 and an invalid one 403, neither with a body. The user ID is
// stored in the request context for downstream handlers.
func (h *Handlers) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, status := h.authenticate(r, false)
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

// authenticate resolves the caller's user ID. It returns a non-zero HTTP
// status when the request must be rejected.
func (h *Handlers) authenticate(r *http.Request, allowQuery bool) (string, int) {
	header := r.Header.Get("Authorization")
	var token string
	var err error
	switch {
	case header != "":
		token, err = auth.ParseBearer(header)
	case allowQuery:
		token = r.URL.Query().Get(TokenQueryParam)
	}
	if err == nil && token == "" {
		err = auth.ErrUnauthenticated
	}
	if err == nil {
		var userID string
		if userID, err = h.auth.Verify(token); err == nil {
			return userID, 0
		}
	}

	if errors.Is(err, auth.ErrUnauthenticated) {
		return "", http.StatusUnauthorized
	}
	logging.Debug("Rejected token for %s %s: %v", r.Method, r.URL.Path, err)
	return "", http.StatusForbidden
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID set by RequireToken.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (auth.Credentials, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return auth.Credentials{}, false
	}
	return auth.Credentials{Email: req.Email, Password: req.Password}, true
}
