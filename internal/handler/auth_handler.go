package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Stewz00/go-login-guard/internal/middleware"
	"github.com/Stewz00/go-login-guard/internal/service"
	"github.com/Stewz00/go-login-guard/internal/transformer"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	loginService *service.LoginService
	authService  *service.AuthService
	users        *transformer.UserTransformer
	secureCookie bool
	log          zerolog.Logger
}

func NewAuthHandler(
	loginService *service.LoginService,
	authService *service.AuthService,
	users *transformer.UserTransformer,
	secureCookie bool,
	log zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		loginService: loginService,
		authService:  authService,
		users:        users,
		secureCookie: secureCookie,
		log:          log,
	}
}

// flexString accepts a JSON string or number. Digit captchas are often
// posted as numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(""), Field: "captcha"}
	}
	*f = flexString(n.String())
	return nil
}

type LoginRequest struct {
	Name       string     `json:"name"`
	Password   string     `json:"password"`
	Captcha    flexString `json:"captcha"`
	CaptchaKey string     `json:"captcha_key"`
}

type errorResponse struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func decodeLogin(r *http.Request) (LoginRequest, error) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Name = r.PostForm.Get("name")
	req.Password = r.PostForm.Get("password")
	req.Captcha = flexString(r.PostForm.Get("captcha"))
	req.CaptchaKey = r.PostForm.Get("captcha_key")
	return req, nil
}

// clientIP returns the request's IP without the port. RemoteAddr is the
// socket peer unless RealIP is installed for a trusted proxy, in which case
// it may already be a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Login authenticates a user and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(r)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			middleware.RecordLoginOutcome("invalid")
			sendJSONError(w, service.TypeErrorMessage(typeErr.Field), http.StatusUnprocessableEntity)
			return
		}
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.loginService.ProcessLogin(r.Context(), service.LoginRequest{
		Name:       req.Name,
		Password:   req.Password,
		Captcha:    string(req.Captcha),
		CaptchaKey: req.CaptchaKey,
		IP:         clientIP(r),
	})
	if err != nil {
		h.loginError(w, err)
		return
	}

	middleware.RecordLoginOutcome("success")
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) loginError(w http.ResponseWriter, err error) {
	var loginErr *service.LoginError
	if !errors.As(err, &loginErr) {
		h.log.Error().Err(err).Msg("login failed unexpectedly")
		sendJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	switch {
	case errors.Is(err, service.ErrLockedOut):
		middleware.RecordLoginOutcome("locked")
		w.Header().Set("Retry-After", strconv.Itoa(loginErr.RetryAfter))
		sendJSON(w, errorResponse{Message: loginErr.Message, RetryAfter: loginErr.RetryAfter}, http.StatusLocked)
	case errors.Is(err, service.ErrCaptcha):
		middleware.RecordLoginOutcome("captcha")
		sendJSONError(w, loginErr.Message, http.StatusUnprocessableEntity)
	case errors.Is(err, service.ErrValidation):
		middleware.RecordLoginOutcome("invalid")
		sendJSONError(w, loginErr.Message, http.StatusUnprocessableEntity)
	default:
		middleware.RecordLoginOutcome("failed")
		sendJSONError(w, loginErr.Message, http.StatusUnprocessableEntity)
	}
}

// Logout revokes the current session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Unauthenticated.", http.StatusUnauthorized)
		return
	}

	if err := h.authService.LogoutUser(r.Context(), token); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		sendJSONError(w, "Failed to logout", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Captcha issues a new image challenge
func (h *AuthHandler) Captcha(w http.ResponseWriter, r *http.Request) {
	key, src, err := h.loginService.IssueCaptcha(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("captcha generation failed")
		sendJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, map[string]string{"src": src, "key": key}, http.StatusOK)
}

// NeedVerificationCode tells the client whether to show the captcha
func (h *AuthHandler) NeedVerificationCode(w http.ResponseWriter, r *http.Request) {
	need, err := h.loginService.NeedVerificationCode(r.Context(), clientIP(r))
	if err != nil {
		h.log.Error().Err(err).Msg("captcha check failed")
		sendJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, map[string]bool{"need": need}, http.StatusOK)
}

// CurrentUser returns the logged in user with any requested includes
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Unauthenticated.", http.StatusUnauthorized)
		return
	}

	payload, err := h.users.Transform(r.Context(), user, transformer.ParseIncludes(r.URL.Query().Get("include")))
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("transform user failed")
		sendJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, payload, http.StatusOK)
}

func sendJSON(w http.ResponseWriter, body any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Helper function to send JSON error responses
func sendJSONError(w http.ResponseWriter, message string, code int) {
	sendJSON(w, errorResponse{Message: message}, code)
}
