package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

// rideTimeLayouts are the accepted formats for a ride's departure time.
// Values without a zone are read as UTC.
var rideTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// RideRequest is the HTTP request body for creating or replacing a ride.
// id and created_at are assigned by the server and ignored if sent.
type RideRequest struct {
	Host        string `json:"host"`
	Destination string `json:"destination"`
	Pickup      string `json:"pickup"`
	Time        string `json:"time"`
	PhoneNo     string `json:"phone_no"`
	Email       string `json:"email"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID          string    `json:"id"`
	Host        string    `json:"host"`
	Destination string    `json:"destination"`
	Pickup      string    `json:"pickup"`
	Time        time.Time `json:"time"`
	CreatedAt   time.Time `json:"created_at"`
	PhoneNo     string    `json:"phone_no"`
	Email       string    `json:"email"`
}

// DeleteRidesResponse is the HTTP response for deleting rides by phone number.
type DeleteRidesResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// CreateRide handles POST /rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	draft, ok := bindRideDraft(c)
	if !ok {
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), draft)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetAll handles GET /rides
func (h *RideHandler) GetAll(c *gin.Context) {
	rides, err := h.rideService.ListRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, len(rides))
	for i, ride := range rides {
		response[i] = toRideResponse(ride)
	}
	respondJSON(c, http.StatusOK, response)
}

// GetRide handles GET /rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// UpdateRide handles PUT /rides/:id
func (h *RideHandler) UpdateRide(c *gin.Context) {
	draft, ok := bindRideDraft(c)
	if !ok {
		return
	}

	ride, err := h.rideService.UpdateRide(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// DeleteRides handles DELETE /rides/:phone_no
func (h *RideHandler) DeleteRides(c *gin.Context) {
	deleted, err := h.rideService.DeleteRidesByPhone(c.Request.Context(), c.Param("phone_no"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DeleteRidesResponse{
		Message: "Ride deleted successfully",
		Deleted: deleted,
	})
}

func bindRideDraft(c *gin.Context) (domain.RideDraft, bool) {
	var req RideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return domain.RideDraft{}, false
	}

	departure, err := parseRideTime(req.Time)
	if err != nil {
		respondError(c, err)
		return domain.RideDraft{}, false
	}

	return domain.RideDraft{
		Host:        req.Host,
		Destination: req.Destination,
		Pickup:      req.Pickup,
		Time:        departure,
		PhoneNo:     req.PhoneNo,
		Email:       req.Email,
	}, true
}

func parseRideTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: time is required", domain.ErrInvalidRide)
	}
	for _, layout := range rideTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: time %q is not a recognised timestamp", domain.ErrInvalidRide, value)
}

func toRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:          r.ID,
		Host:        r.Host,
		Destination: r.Destination,
		Pickup:      r.Pickup,
		Time:        r.Time.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
		PhoneNo:     r.PhoneNo,
		Email:       r.Email,
	}
}
