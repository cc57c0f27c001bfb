package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/Abdi-Suufi/sweetshop/internal/api/middleware"
	"github.com/Abdi-Suufi/sweetshop/internal/auth"
	"github.com/Abdi-Suufi/sweetshop/internal/notification"
)

// AdminCredentials is the single configured admin account.
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// SessionHandlers handles sign-in and sign-out
type SessionHandlers struct {
	tokens *auth.TokenService
	admin  AdminCredentials
	relay  *notification.Relay
}

func NewSessionHandlers(tokens *auth.TokenService, admin AdminCredentials, relay *notification.Relay) *SessionHandlers {
	return &SessionHandlers{
		tokens: tokens,
		admin:  admin,
		relay:  relay,
	}
}

type identityResponse struct {
	IdentityID string `json:"identityId"`
	Role       string `json:"role"`
	Token      string `json:"token,omitempty"`
}

// Anonymous mints a fresh anonymous identity and sets its cookie. This is the
// default sign-in for a new visitor.
func (h *SessionHandlers) Anonymous(w http.ResponseWriter, r *http.Request) {
	identityID, token, err := h.tokens.IssueAnonymous()
	if err != nil {
		respondJSONError(w, "could not establish identity", http.StatusInternalServerError)
		return
	}

	middleware.SetIdentityCookie(w, r, token, h.tokens)
	respondJSON(w, http.StatusCreated, identityResponse{
		IdentityID: identityID,
		Role:       auth.RoleCustomer,
		Token:      token,
	})
}

// Token signs in with a pre-issued custom token.
func (h *SessionHandlers) Token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claims, err := h.tokens.Validate(req.Token)
	if err != nil {
		respondJSONError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	middleware.SetIdentityCookie(w, r, req.Token, h.tokens)
	respondJSON(w, http.StatusOK, identityResponse{
		IdentityID: claims.IdentityID,
		Role:       claims.Role,
	})
}

// Admin signs in the configured admin account with email and password.
func (h *SessionHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if h.admin.Email == "" || req.Email != h.admin.Email || !auth.CheckPassword(req.Password, h.admin.PasswordHash) {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	identityID := uuid.New().String()
	token, err := h.tokens.Issue(identityID, auth.RoleAdmin)
	if err != nil {
		respondJSONError(w, "could not establish identity", http.StatusInternalServerError)
		return
	}

	middleware.SetIdentityCookie(w, r, token, h.tokens)
	h.relay.Success("Signed in as admin.")
	respondJSON(w, http.StatusOK, identityResponse{
		IdentityID: identityID,
		Role:       auth.RoleAdmin,
	})
}

// SignOut clears the identity cookie. The basket document stays behind,
// orphaned under the old identity.
func (h *SessionHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	middleware.ClearIdentityCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}
