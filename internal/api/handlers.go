package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/trocly/troc-server/internal/models"
	"github.com/trocly/troc-server/internal/service"
)

// statusByCode maps the service error taxonomy to HTTP statuses.
var statusByCode = map[string]int{
	"OFFER_NOT_FOUND":          http.StatusNotFound,
	"TRADE_NOT_FOUND":          http.StatusNotFound,
	"GROUP_NOT_FOUND":          http.StatusNotFound,
	"USER_NOT_FOUND":           http.StatusNotFound,
	"INSUFFICIENT_TOKENS":      http.StatusBadRequest,
	"OFFER_ALREADY_CLAIMED":    http.StatusConflict,
	"INVALID_TOKEN_AMOUNT":     http.StatusBadRequest,
	"MISSING_FIELDS":           http.StatusBadRequest,
	"EMAIL_ALREADY_REGISTERED": http.StatusConflict,
	"INVALID_CREDENTIALS":      http.StatusUnauthorized,
}

// Handler wires the service operations to the HTTP surface
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	apiGroup := router.Group("/api")

	apiGroup.POST("/auth/signup", h.SignUp)
	apiGroup.POST("/auth/login", h.Login)

	authorized := apiGroup.Group("")
	authorized.Use(AuthMiddleware())

	authorized.GET("/offers", h.ListOffers)
	authorized.POST("/offers", h.CreateOffer)

	authorized.GET("/trades", h.ListTrades)
	authorized.POST("/trades", h.ProposeTrade)
	authorized.POST("/trades/:id/accept", h.AcceptTrade)
	authorized.POST("/trades/:id/reject", h.RejectTrade)

	authorized.POST("/savings", h.RecordSaving)
	authorized.GET("/sponsors/summary", h.SponsorSummary)

	authorized.POST("/order-groups", h.CreateOrderGroup)
	authorized.GET("/order-groups/:id", h.GetOrderGroup)
	authorized.POST("/order-groups/:id/join", h.JoinOrderGroup)
}

// Auth endpoints
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMissingFields(c)
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMissingFields(c)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Offer endpoints
func (h *Handler) ListOffers(c *gin.Context) {
	excludeMine := c.Query("excludeMine") == "true"

	offers, err := h.svc.ListOffers(c.Request.Context(), c.GetString("userId"), excludeMine)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OfferListResponse{Items: offers})
}

func (h *Handler) CreateOffer(c *gin.Context) {
	var req models.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMissingFields(c)
		return
	}

	offer, err := h.svc.CreateOffer(c.Request.Context(), c.GetString("userId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// Trade endpoints
func (h *Handler) ListTrades(c *gin.Context) {
	trades, err := h.svc.ListTradesForUser(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TradeListResponse{Items: trades})
}

func (h *Handler) ProposeTrade(c *gin.Context) {
	var req models.ProposeTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMissingFields(c)
		return
	}

	trade, err := h.svc.ProposeTrade(c.Request.Context(), c.GetString("userId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trade)
}

func (h *Handler) AcceptTrade(c *gin.Context) {
	trade, err := h.svc.AcceptTrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}

func (h *Handler) RejectTrade(c *gin.Context) {
	trade, err := h.svc.RejectTrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}

// Referral endpoints
func (h *Handler) RecordSaving(c *gin.Context) {
	var req models.RecordSavingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMissingFields(c)
		return
	}

	resp, err := h.svc.RecordSaving(c.Request.Context(), c.GetString("userId"), *req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) SponsorSummary(c *gin.Context) {
	summary, err := h.svc.GetSponsorSummary(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Order group endpoints
func (h *Handler) CreateOrderGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMissingFields(c)
		return
	}

	group, err := h.svc.CreateOrderGroup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

func (h *Handler) GetOrderGroup(c *gin.Context) {
	group, err := h.svc.GetOrderGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *Handler) JoinOrderGroup(c *gin.Context) {
	var req models.JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMissingFields(c)
		return
	}

	group, err := h.svc.JoinOrderGroup(c.Request.Context(), c.Param("id"), c.GetString("userId"), req.Units)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func respondMissingFields(c *gin.Context) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "MISSING_FIELDS"})
}

// respondError surfaces domain error codes with their mapped status and
// hides everything else behind INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status, ok := statusByCode[svcErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.JSON(status, models.ErrorResponse{Error: svcErr.Code})
		return
	}

	logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "INTERNAL_ERROR"})
}
