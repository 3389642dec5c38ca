package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	webrtc "github.com/pion/webrtc/v3"
	"go.uber.org/zap"

	"dcprobe/internal/core/domain"
	"dcprobe/internal/core/ports"
	apperrors "dcprobe/pkg/errors"
)

// SessionHandler exposes the harness HTTP surface: one-shot signaling,
// reset, and stats for the external test runner to assert against.
type SessionHandler struct {
	session ports.SessionService
	logger  *zap.SugaredLogger
}

func NewSessionHandler(session ports.SessionService, logger *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{
		session: session,
		logger:  logger,
	}
}

func (h *SessionHandler) SetupRoutes(router *gin.Engine) {
	router.POST("/offer", h.PostOffer)
	router.POST("/reset", h.PostReset)
	router.GET("/results", h.GetResults)
	router.GET("/state", h.GetState)
}

// PostOffer handles POST /offer?test=<scenario>. The body is a session
// description of type "offer"; the response is the answer once ICE gathering
// completes. Failures are attached as AppErrors and rendered by the error
// handler middleware.
func (h *SessionHandler) PostOffer(c *gin.Context) {
	testName := c.DefaultQuery("test", domain.DefaultScenario)

	var offer webrtc.SessionDescription
	if err := c.ShouldBindJSON(&offer); err != nil {
		c.Error(apperrors.NewInvalidInputError("Invalid SDP"))
		return
	}

	answer, err := h.session.Negotiate(c.Request.Context(), testName, offer)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionActive):
			c.Error(apperrors.NewConflictError("Already connected"))
		case errors.Is(err, domain.ErrMalformedOffer):
			c.Error(apperrors.NewInvalidInputError("Invalid SDP"))
		case errors.Is(err, domain.ErrGatheringTimeout):
			c.Error(apperrors.NewGatewayTimeoutError("ICE gathering timeout"))
		default:
			h.logger.Errorw("handshake failed", "test", testName, "error", err)
			c.Error(apperrors.WrapError(err, apperrors.ErrCodeInternal, err.Error(), http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, answer)
}

// PostReset handles POST /reset. Always succeeds; safe when idle.
func (h *SessionHandler) PostReset(c *gin.Context) {
	h.session.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetResults handles GET /results with per-channel stats in first-observed
// order.
func (h *SessionHandler) GetResults(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Results())
}

// GetState reports the engine connection state, useful when a test runner
// wants to wait for "connected" before asserting on traffic.
func (h *SessionHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connectionState": h.session.ConnectionState().String(),
	})
}
