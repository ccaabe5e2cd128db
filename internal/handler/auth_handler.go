package handler

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-directory/internal/middleware"
	"github.com/noah-isme/alumni-directory/internal/models"
	appErrors "github.com/noah-isme/alumni-directory/pkg/errors"
	"github.com/noah-isme/alumni-directory/pkg/response"
)

// HomePath is where a successful browser login lands.
const HomePath = "/home"

var loginTmpl = template.Must(template.ParseFS(assetFS, "templates/login.html"))

type loginView struct {
	Action string
	Email  string
	Error  string
}

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler serves the login form and exchanges credentials for a session.
type AuthHandler struct {
	auth         authService
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler constructs AuthHandler. secureCookie marks the session cookie HTTPS-only.
func NewAuthHandler(auth authService, secureCookie bool, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, secureCookie: secureCookie, logger: logger}
}

// LoginPage godoc
// @Summary Sign-in form
// @Tags Auth
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router /login [get]
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.renderLogin(c, http.StatusOK, loginView{})
}

// Login godoc
// @Summary Exchange credentials for a session token
// @Tags Auth
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Success 303 {string} string "Redirect to /home for form posts"
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	form := isFormPost(c)

	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
		if form {
			h.renderLogin(c, appErr.Status, loginView{Email: req.Email, Error: appErr.Message})
			return
		}
		response.Error(c, appErr)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		if form {
			appErr := appErrors.FromError(err)
			h.renderLogin(c, appErr.Status, loginView{Email: req.Email, Error: appErr.Message})
			return
		}
		response.Error(c, err)
		return
	}

	h.setSession(c, resp.AccessToken, resp.ExpiresAt)
	if form {
		c.Redirect(http.StatusSeeOther, HomePath)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags Auth
// @Success 204
// @Success 303 {string} string "Redirect to /login for form posts"
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSession(c, "", time.Unix(0, 0))
	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, middleware.LoginPath)
		return
	}
	response.NoContent(c)
}

func (h *AuthHandler) setSession(c *gin.Context, token string, expiresAt time.Time) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(c.Writer, cookie)
}

func (h *AuthHandler) renderLogin(c *gin.Context, status int, view loginView) {
	view.Action = middleware.LoginPath
	var buf bytes.Buffer
	if err := loginTmpl.Execute(&buf, view); err != nil {
		h.logger.Error("render login page", zap.Error(err))
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render page"))
		return
	}
	response.HTML(c, status, buf.Bytes())
}

func isFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return true
	}
	return false
}
