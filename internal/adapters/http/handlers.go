package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yhkiel05/team-map/internal/app"
	"github.com/yhkiel05/team-map/internal/config"
	"github.com/yhkiel05/team-map/internal/domain"
)

type Handler struct {
	svc *app.Service
	cfg *config.Config
}

func NewHandler(svc *app.Service, cfg *config.Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

func (h *Handler) banner(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Event Planning Map API", "status": "active"})
}

// --- rooms ---

type createRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by" binding:"required"`
}

func (h *Handler) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "missing or invalid room fields")
		return
	}
	room, err := h.svc.CreateRoom(c.Request.Context(), req.Name, req.Description, domain.UserID(req.CreatedBy))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

func (h *Handler) listRooms(c *gin.Context) {
	rooms, err := h.svc.ActiveRooms(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, rooms)
}

func (h *Handler) getRoom(c *gin.Context) {
	room, err := h.svc.Room(c.Request.Context(), domain.RoomID(c.Param("id")))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

type joinRoomRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) joinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "missing or invalid user_id")
		return
	}
	if err := h.svc.JoinRoom(c.Request.Context(), domain.RoomID(c.Param("id")), domain.UserID(req.UserID)); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Successfully joined room"})
}

func (h *Handler) deactivateRoom(c *gin.Context) {
	if err := h.svc.DeactivateRoom(c.Request.Context(), domain.RoomID(c.Param("id"))); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Room deactivated"})
}

func (h *Handler) optimalLocation(c *gin.Context) {
	centroid, err := h.svc.OptimalLocation(c.Request.Context(), domain.RoomID(c.Param("id")))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"optimal_location": centroid,
		"algorithm":        "centroid",
		"description":      "Geographic center of all pins",
	})
}

// --- pins ---

type createPinRequest struct {
	RoomID      string   `json:"room_id" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Longitude   *float64 `json:"longitude" binding:"required"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	CreatedBy   string   `json:"created_by" binding:"required"`
}

func (h *Handler) createPin(c *gin.Context) {
	var req createPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "missing or invalid pin fields")
		return
	}
	pin, err := h.svc.CreatePin(c.Request.Context(),
		domain.RoomID(req.RoomID), req.Title, req.Description,
		*req.Longitude, *req.Latitude, domain.UserID(req.CreatedBy))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, pin)
}

func (h *Handler) roomPins(c *gin.Context) {
	pins, err := h.svc.RoomPins(c.Request.Context(), domain.RoomID(c.Param("room_id")))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, pins)
}

type votePinRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) votePin(c *gin.Context) {
	var req votePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "missing or invalid user_id")
		return
	}
	action, pin, err := h.svc.ToggleVote(c.Request.Context(), domain.PinID(c.Param("id")), domain.UserID(req.UserID))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"message": "Vote " + string(action),
		"votes":   pin.Votes,
	})
}

func (h *Handler) deletePin(c *gin.Context) {
	if err := h.svc.DeletePin(c.Request.Context(), domain.PinID(c.Param("id"))); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Pin deleted"})
}

type nearbyPinsQuery struct {
	Longitude   *float64 `form:"longitude" binding:"required"`
	Latitude    *float64 `form:"latitude" binding:"required"`
	MaxDistance int      `form:"max_distance"`
}

func (h *Handler) nearbyPins(c *gin.Context) {
	var q nearbyPinsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "missing or invalid coordinates")
		return
	}
	maxDistance := q.MaxDistance
	if maxDistance <= 0 {
		maxDistance = h.cfg.NearbyMaxDistanceM
	}
	pins, err := h.svc.NearbyPins(c.Request.Context(), *q.Longitude, *q.Latitude, maxDistance)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"pins": pins, "count": len(pins)})
}

// --- users ---

type createUserRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "missing or invalid name")
		return
	}
	user, err := h.svc.CreateUser(c.Request.Context(), req.Name, req.Email, req.Avatar)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, user)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.svc.User(c.Request.Context(), domain.UserID(c.Param("id")))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, user)
}
