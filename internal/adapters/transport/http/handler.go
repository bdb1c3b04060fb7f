package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/forja-app/auth-service/internal/auth/dto"
	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
	"github.com/forja-app/auth-service/internal/auth/model"
	"github.com/forja-app/auth-service/internal/auth/service"
	"github.com/forja-app/auth-service/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// session value and request-context keys for the resolved user
const (
	sessionUserKey = "user"
	ctxUserKey     = "auth.user"
)

type Handler struct {
	svc service.AuthService
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
	rdb *redis.Client
}

func NewHandler(svc service.AuthService, cfg *config.Config, log *zap.Logger, db *gorm.DB, rdb *redis.Client) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log, db: db, rdb: rdb}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	v1 := r.Group("/v1")
	v1.GET("/status/database", h.databaseStatus)

	auth := v1.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/login-jwt", h.loginJWT)
	auth.POST("/refresh-jwt", h.refreshJWT)
	auth.POST("/forgot-password", h.forgotPassword)
	auth.POST("/reset-password", h.resetPassword)
	auth.POST("/oauth", h.oauth)
	auth.GET("/me", h.RequiredAuth(), h.me)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) databaseStatus(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.log.Error("database ping failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) register(c *gin.Context) {
	var d dto.RegisterDTO
	if !h.bind(c, &d) {
		return
	}
	if err := h.svc.Register(c.Request.Context(), d); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) login(c *gin.Context) {
	var d dto.LoginDTO
	if !h.bind(c, &d) {
		return
	}

	user, err := h.svc.Login(c.Request.Context(), d)
	if err != nil {
		h.handleError(c, err)
		return
	}

	payload, err := json.Marshal(user)
	if err != nil {
		h.handleError(c, customErrors.WrapInternal(err, "login session"))
		return
	}

	sess := sessions.Default(c)
	sess.Set(sessionUserKey, string(payload))
	if err := sess.Save(); err != nil {
		h.handleError(c, customErrors.WrapInternal(err, "login session"))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) loginJWT(c *gin.Context) {
	var d dto.LoginDTO
	if !h.bind(c, &d) {
		return
	}

	pair, user, err := h.svc.LoginJWT(c.Request.Context(), d)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenPayload(pair, user))
}

func (h *Handler) refreshJWT(c *gin.Context) {
	var d dto.RefreshDTO
	if !h.bind(c, &d) {
		return
	}

	pair, user, err := h.svc.Refresh(c.Request.Context(), d)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenPayload(pair, user))
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var d dto.ForgotPasswordDTO
	if !h.bind(c, &d) {
		return
	}

	var expiresIn time.Duration
	if raw := c.Query("expiration_time"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			h.handleError(c, customErrors.NewValidation(map[string][]string{
				"expiration_time": {"Valor inválido"},
			}))
			return
		}
		expiresIn = time.Duration(secs) * time.Second
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), d, expiresIn); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var d dto.ResetPasswordDTO
	if !h.bind(c, &d) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), d); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) oauth(c *gin.Context) {
	var d dto.OAuthDTO
	if !h.bind(c, &d) {
		return
	}

	user, action, err := h.svc.OAuth(c.Request.Context(), d)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "action": action})
}

func (h *Handler) me(c *gin.Context) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Acesso não autorizado"})
		return
	}
	c.JSON(http.StatusOK, v)
}

// RequiredAuth resolves the caller's identity. A session cookie wins
// outright, even when a bearer token is also present; otherwise the
// Authorization header must carry a live access token.
func (h *Handler) RequiredAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if raw, ok := sess.Get(sessionUserKey).(string); ok && raw != "" {
			var stored model.PublicUser
			if err := json.Unmarshal([]byte(raw), &stored); err != nil {
				h.abortUnauthorized(c)
				return
			}
			user, err := h.svc.ResolveUser(c.Request.Context(), stored.Email)
			if err != nil {
				h.abortUnauthorized(c)
				return
			}
			c.Set(ctxUserKey, user)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			h.abortUnauthorized(c)
			return
		}

		user, err := h.svc.ResolveToken(c.Request.Context(), token)
		if err != nil {
			h.abortUnauthorized(c)
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func (h *Handler) abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Acesso não autorizado"})
}

// bind decodes the JSON body; malformed payloads get the same 400 shape as
// field validation failures.
func (h *Handler) bind(c *gin.Context, d any) bool {
	if err := c.ShouldBindJSON(d); err != nil {
		h.handleError(c, customErrors.NewValidation(nil))
		return false
	}
	return true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var ve *customErrors.ValidationError
	switch {
	case customErrors.IsInvalidArgument(err):
		body := gin.H{"message": err.Error()}
		if errors.As(err, &ve) && len(ve.Fields) > 0 {
			body["data"] = ve.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case customErrors.IsBusinessRule(err):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case customErrors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	default:
		h.log.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Erro interno"})
	}
}

func tokenPayload(pair model.TokenPair, user model.PublicUser) gin.H {
	return gin.H{
		"token":             pair.AccessToken,
		"token_exp":         pair.AccessExp.Unix(),
		"token_refresh":     pair.RefreshToken,
		"token_refresh_exp": pair.RefreshExp.Unix(),
		"user":              user,
	}
}
