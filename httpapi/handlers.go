package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/MrEthical07/goCaptcha/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers binds gin routes to an Engine.
type Handlers struct {
	engine *goCaptcha.Engine
	logger *slog.Logger
}

func NewHandlers(engine *goCaptcha.Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{engine: engine, logger: logger}
}

type issueResponse struct {
	Token      string `json:"token"`
	Image      string `json:"image,omitempty"`
	ValidUntil int64  `json:"validUntil"`
	Mode       string `json:"mode"`
}

type verifyRequest struct {
	Token    string `json:"token" binding:"required"`
	Solution string `json:"solution"`
}

type verifyResponse struct {
	Result string `json:"result"`
	Pass   string `json:"pass,omitempty"`
}

type passResponse struct {
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	Kind      string `json:"kind"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Issue handles GET /captcha.
func (h *Handlers) Issue(c *gin.Context) {
	ch, err := h.engine.Issue(middleware.RequestContext(c.Request.Context(), c.Request))
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "issue failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue challenge"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, issueResponse{
		Token:      ch.Token,
		Image:      ch.Image,
		ValidUntil: ch.ValidUntil.UnixMilli(),
		Mode:       string(ch.Mode),
	})
}

// Verify handles POST /captcha/verify.
func (h *Handlers) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.engine.Verify(middleware.RequestContext(c.Request.Context(), c.Request), req.Token, req.Solution)
	if err != nil {
		h.verifyFailed(c, err)
		return
	}
	c.JSON(middleware.StatusForResult(result), verifyResponse{Result: result.String()})
}

// Grant handles POST /captcha/pass.
func (h *Handlers) Grant(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, token, err := h.engine.VerifyAndGrant(middleware.RequestContext(c.Request.Context(), c.Request), req.Token, req.Solution)
	if err != nil {
		if errors.Is(err, goCaptcha.ErrPassDisabled) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "Passes are disabled"})
			return
		}
		h.verifyFailed(c, err)
		return
	}
	c.JSON(middleware.StatusForResult(result), verifyResponse{Result: result.String(), Pass: token})
}

// ValidatePass handles GET /captcha/pass.
func (h *Handlers) ValidatePass(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Pass required"})
		return
	}

	claims, err := h.engine.ValidatePass(middleware.RequestContext(c.Request.Context(), c.Request), token)
	switch {
	case errors.Is(err, goCaptcha.ErrPassDisabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Passes are disabled"})
		return
	case err != nil:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid pass"})
		return
	}

	resp := passResponse{ID: claims.ID, Mode: claims.Mode, Kind: claims.Kind}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UnixMilli()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) verifyFailed(c *gin.Context, err error) {
	h.logger.ErrorContext(c.Request.Context(), "verification aborted", slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
}
