package directory

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"residence/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	buildings := rg.Group("/buildings")
	{
		buildings.POST("", h.CreateBuilding)
		buildings.GET("", h.ListBuildings)
		buildings.GET("/:id", h.GetBuilding)
		buildings.POST("/:id/apartments", h.CreateApartment)
		buildings.GET("/:id/apartments", h.ListApartments)
		buildings.POST("/:id/residents", h.AssignResident)
	}
	rg.GET("/memberships", h.MyMemberships)
}

func (h *Handler) CreateBuilding(c *gin.Context) {
	var req CreateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateBuilding(c.Request.Context(), c.GetInt64("user_id"), req.Name, req.Address, req.City)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create building")
		return
	}
	response.Success(c, http.StatusCreated, b)
}

func (h *Handler) ListBuildings(c *gin.Context) {
	list, err := h.service.ListBuildings(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list buildings")
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) GetBuilding(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid building ID")
		return
	}

	b, err := h.service.GetBuilding(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBuildingNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Building not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get building")
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) CreateApartment(c *gin.Context) {
	buildingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || buildingID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid building ID")
		return
	}

	var req CreateApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	a, err := h.service.CreateApartment(c.Request.Context(), c.GetInt64("user_id"), buildingID, req.Number, req.Floor)
	if err != nil {
		h.mapError(c, err, "Failed to create apartment")
		return
	}
	response.Success(c, http.StatusCreated, a)
}

func (h *Handler) ListApartments(c *gin.Context) {
	buildingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || buildingID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid building ID")
		return
	}

	list, err := h.service.ListApartments(c.Request.Context(), buildingID)
	if err != nil {
		h.mapError(c, err, "Failed to list apartments")
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) AssignResident(c *gin.Context) {
	buildingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || buildingID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid building ID")
		return
	}

	var req AssignResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	role := Role(req.Role)
	switch role {
	case RoleResident, RoleManager, RoleAdmin:
	case "":
		role = RoleResident
	default:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown role")
		return
	}

	m, err := h.service.AssignResident(c.Request.Context(), c.GetInt64("user_id"), buildingID, req.ResidentID, req.ApartmentID, role)
	if err != nil {
		h.mapError(c, err, "Failed to assign resident")
		return
	}
	response.Success(c, http.StatusCreated, m)
}

func (h *Handler) MyMemberships(c *gin.Context) {
	list, err := h.service.MyMemberships(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list memberships")
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) mapError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrBuildingNotFound),
		errors.Is(err, ErrApartmentNotFound),
		errors.Is(err, ErrResidentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrNotBuildingAdmin):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrApartmentMismatch):
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
