package controllers

import (
	"net/http"

	"socialfeed/app/auth"

	"github.com/sirupsen/logrus"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthController handles registration, login and logout
type AuthController struct {
	responder
	auth    *auth.Service
	cookies *auth.Cookies
}

// NewAuthController creates a new AuthController
func NewAuthController(svc *auth.Service, cookies *auth.Cookies, logger logrus.FieldLogger) *AuthController {
	return &AuthController{
		responder: responder{logger: logger},
		auth:      svc,
		cookies:   cookies,
	}
}

// Register creates an account and logs it in
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := ac.decodeJSON(r, &body); err != nil {
		ac.sendError(w, r, err)
		return
	}

	user, err := ac.auth.Register(r.Context(), body.Username, body.Password)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	if !ac.startSession(w, r, user.ID) {
		return
	}
	ac.sendJSON(w, http.StatusCreated, user)
}

// Login checks credentials and starts a session
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := ac.decodeJSON(r, &body); err != nil {
		ac.sendError(w, r, err)
		return
	}

	user, err := ac.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	if !ac.startSession(w, r, user.ID) {
		return
	}
	ac.sendJSON(w, http.StatusOK, user)
}

// Logout ends the current session, if any
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := ac.auth.EndSession(r.Context(), ac.cookies.Read(r)); err != nil {
		ac.sendError(w, r, err)
		return
	}
	ac.cookies.Clear(w)
	w.WriteHeader(http.StatusOK)
}

// User returns the logged-in user
func (ac *AuthController) User(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		ac.sendError(w, r, auth.ErrUnauthorized)
		return
	}
	ac.sendJSON(w, http.StatusOK, user)
}

func (ac *AuthController) startSession(w http.ResponseWriter, r *http.Request, userID int) bool {
	session, err := ac.auth.StartSession(r.Context(), userID)
	if err != nil {
		ac.sendError(w, r, err)
		return false
	}
	ac.cookies.Set(w, session)
	return true
}
