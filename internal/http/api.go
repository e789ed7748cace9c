package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"flight-board/internal/domain"
	"flight-board/internal/repository"
	"flight-board/internal/service"
	"flight-board/internal/session"
)

// SessionEvents is the change feed of the active session.
type SessionEvents interface {
	Subscribe() (<-chan session.Event, func())
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	flights service.FlightService
	events  SessionEvents
	tokens  *TokenIssuer
	logger  *logrus.Logger
}

func NewHandler(users service.UserService, flights service.FlightService, events SessionEvents, tokens *TokenIssuer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:   users,
		flights: flights,
		events:  events,
		tokens:  tokens,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		sess := api.Group("/session")
		sess.GET("", h.getSession)
		sess.GET("/events", h.streamSession)
		sess.PUT("/profile", h.updateProfile)
		sess.DELETE("/profile", h.forgetProfile)
		sess.PUT("/settings", h.updateSettings)
		sess.POST("/register", h.register)
		sess.POST("/load", h.restoreSession)

		flights := api.Group("/flights")
		flights.GET("", h.listFlights)
		flights.GET("/:id", h.getFlight)
		flights.POST("/:id/checkin", h.requireSession(), h.checkIn)
		flights.POST("/:id/rebook", h.rebook)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

type updateSettingsRequest struct {
	RememberUser *bool `json:"rememberUser" binding:"required"`
}

type registerRequest struct {
	Name         string `json:"name"`
	RememberUser bool   `json:"rememberUser"`
}

type SessionResponse struct {
	Name          string `json:"name"`
	RememberUser  bool   `json:"rememberUser"`
	Registered    bool   `json:"registered"`
	UserNameValid bool   `json:"userNameValid"`
}

type RegisterResponse struct {
	Session   SessionResponse `json:"session"`
	Token     string          `json:"token"`
	ExpiresAt string          `json:"expires_at"`
}

type SessionEventResponse struct {
	Kind    string          `json:"kind"`
	Session SessionResponse `json:"session"`
}

func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionToResponse(h.users.Current()))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionToResponse(h.users.UpdateName(req.Name)))
}

func (h *Handler) updateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	current := h.users.UpdateRememberUser(c.Request.Context(), *req.RememberUser)
	c.JSON(http.StatusOK, sessionToResponse(current))
}

func (h *Handler) forgetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, sessionToResponse(h.users.Forget(c.Request.Context())))
}

func (h *Handler) restoreSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionToResponse(h.users.Restore(c.Request.Context())))
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.users.Register(c.Request.Context(), req.Name, req.RememberUser)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserName) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, expires, err := h.tokens.Issue(profile.Name)
	if err != nil {
		h.logger.WithError(err).Error("issue session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue session token"})
		return
	}

	h.logger.WithField("remember", req.RememberUser).Infof("registered %s", profile.Name)
	c.JSON(http.StatusCreated, RegisterResponse{
		Session:   sessionToResponse(h.users.Current()),
		Token:     token,
		ExpiresAt: expires.Format(time.RFC3339),
	})
}

func (h *Handler) streamSession(c *gin.Context) {
	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	initial := true
	c.Stream(func(w io.Writer) bool {
		if initial {
			initial = false
			c.SSEvent("session", SessionEventResponse{
				Kind:    "snapshot",
				Session: sessionToResponse(h.users.Current()),
			})
			return true
		}
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("session", eventToResponse(ev))
			return true
		}
	})
}

type FlightResponse struct {
	ID           string `json:"id"`
	Airline      string `json:"airline"`
	Number       string `json:"number"`
	Direction    string `json:"direction"`
	OtherAirport string `json:"other_airport"`
	Status       string `json:"status"`
	StatusText   string `json:"status_text"`
	Gate         string `json:"gate,omitempty"`
	Scheduled    string `json:"scheduled"`
	Expected     string `json:"expected"`
	CanCheckIn   bool   `json:"can_check_in"`
	CanRebook    bool   `json:"can_rebook"`
}

type CheckInResponse struct {
	ID        string `json:"id"`
	Airline   string `json:"airline"`
	Flight    string `json:"flight"`
	Passenger string `json:"passenger"`
	Message   string `json:"message"`
}

func (h *Handler) listFlights(c *gin.Context) {
	direction := domain.Direction(c.Query("direction"))
	hideCancelled, err := strconv.ParseBool(c.DefaultQuery("hide_cancelled", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flag hide_cancelled"})
		return
	}

	flights, err := h.flights.Board(c.Request.Context(), direction, hideCancelled)
	if err != nil {
		h.writeFlightError(c, err)
		return
	}

	resp := make([]FlightResponse, len(flights))
	for i := range flights {
		resp[i] = flightToResponse(flights[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getFlight(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	flight, err := h.flights.Flight(c.Request.Context(), id)
	if err != nil {
		h.writeFlightError(c, err)
		return
	}
	c.JSON(http.StatusOK, flightToResponse(*flight))
}

func (h *Handler) checkIn(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	checkIn, err := h.flights.CheckIn(c.Request.Context(), id)
	if err != nil {
		h.writeFlightError(c, err)
		return
	}

	passenger := ""
	if claims := sessionClaims(c); claims != nil {
		passenger = claims.Name
	}
	h.logger.WithFields(logrus.Fields{
		"airline": checkIn.Airline,
		"flight":  checkIn.Flight,
	}).Infof("check-in for %s", passenger)

	c.JSON(http.StatusOK, CheckInResponse{
		ID:        checkIn.ID.String(),
		Airline:   checkIn.Airline,
		Flight:    checkIn.Flight,
		Passenger: passenger,
		Message:   "Check in for " + checkIn.Airline + " Flight " + checkIn.Flight,
	})
}

func (h *Handler) rebook(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	err := h.flights.Rebook(c.Request.Context(), id)
	if errors.Is(err, service.ErrRebookUnavailable) {
		c.JSON(http.StatusOK, gin.H{
			"rebooked": false,
			"title":    "Contact Your Airline",
			"message":  err.Error(),
		})
		return
	}
	if err != nil {
		h.writeFlightError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rebooked": true})
}

func (h *Handler) writeFlightError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidDirection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCheckInUnavailable), errors.Is(err, service.ErrRebookNotApplicable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("flight request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func flightID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight id"})
		return uuid.Nil, false
	}
	return id, true
}

func sessionToResponse(s service.Session) SessionResponse {
	return SessionResponse{
		Name:          s.Profile.Name,
		RememberUser:  s.Settings.RememberUser,
		Registered:    s.Registered,
		UserNameValid: s.UserNameValid,
	}
}

func eventToResponse(ev session.Event) SessionEventResponse {
	return SessionEventResponse{
		Kind: string(ev.Kind),
		Session: SessionResponse{
			Name:          ev.Profile.Name,
			RememberUser:  ev.Settings.RememberUser,
			Registered:    ev.Profile.IsRegistered(),
			UserNameValid: ev.Profile.IsUserNameValid(),
		},
	}
}

func flightToResponse(f domain.Flight) FlightResponse {
	return FlightResponse{
		ID:           f.ID.String(),
		Airline:      f.Airline,
		Number:       f.Number,
		Direction:    string(f.Direction),
		OtherAirport: f.OtherAirport,
		Status:       string(f.Status),
		StatusText:   f.StatusText(),
		Gate:         f.Gate,
		Scheduled:    f.Scheduled.Format(time.RFC3339),
		Expected:     f.Expected.Format(time.RFC3339),
		CanCheckIn:   f.CanCheckIn(),
		CanRebook:    f.CanRebook(),
	}
}
