package claim

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"residence/internal/domain/directory"
	"residence/internal/pkg/response"
	"residence/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	claims := rg.Group("/claims")
	{
		claims.POST("", h.CreateClaim)
		claims.GET("/building/:buildingId", h.GetClaimsByBuilding)
		claims.GET("/:claimId", h.GetClaimByID)
		claims.PATCH("/:claimId/status", h.UpdateClaimStatus)
		claims.DELETE("/:claimId", h.DeleteClaim)
	}
}

// CreateClaim accepts multipart/form-data with a claim_data JSON part
// and optional photo file parts, or a plain JSON body when there are no
// photos.
func (h *Handler) CreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	var photos []*multipart.FileHeader

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		raw := c.PostForm("claim_data")
		if raw == "" {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing claim_data form field")
			return
		}
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid claim_data JSON")
			return
		}
		if form, err := c.MultipartForm(); err == nil && form != nil {
			photos = form.File["photos"]
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid claim payload", fields)
		return
	}

	resp, err := h.service.CreateClaim(c.Request.Context(), c.GetInt64("user_id"), req, photos)
	if err != nil {
		h.mapError(c, err, "Failed to create claim")
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) GetClaimsByBuilding(c *gin.Context) {
	buildingID, err := strconv.ParseInt(c.Param("buildingId"), 10, 64)
	if err != nil || buildingID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid building ID")
		return
	}

	list, err := h.service.GetClaimsByBuilding(c.Request.Context(), buildingID, c.GetInt64("user_id"))
	if err != nil {
		h.mapError(c, err, "Failed to list claims")
		return
	}

	response.Success(c, http.StatusOK, list)
}

func (h *Handler) GetClaimByID(c *gin.Context) {
	claimID, err := strconv.ParseInt(c.Param("claimId"), 10, 64)
	if err != nil || claimID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid claim ID")
		return
	}

	resp, err := h.service.GetClaim(c.Request.Context(), claimID, c.GetInt64("user_id"))
	if err != nil {
		h.mapError(c, err, "Failed to get claim")
		return
	}

	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) UpdateClaimStatus(c *gin.Context) {
	claimID, err := strconv.ParseInt(c.Param("claimId"), 10, 64)
	if err != nil || claimID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid claim ID")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.UpdateStatus(c.Request.Context(), claimID, c.GetInt64("user_id"), req.Status)
	if err != nil {
		h.mapError(c, err, "Failed to update claim status")
		return
	}

	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) DeleteClaim(c *gin.Context) {
	claimID, err := strconv.ParseInt(c.Param("claimId"), 10, 64)
	if err != nil || claimID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid claim ID")
		return
	}

	if err := h.service.DeleteClaim(c.Request.Context(), claimID, c.GetInt64("user_id")); err != nil {
		h.mapError(c, err, "Failed to delete claim")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) mapError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrApartmentNotFound),
		errors.Is(err, ErrReporterNotFound),
		errors.Is(err, directory.ErrBuildingNotFound),
		errors.Is(err, directory.ErrApartmentNotFound),
		errors.Is(err, directory.ErrResidentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrCrossBuilding):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrDuplicateAffected):
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, ErrUpload):
		response.Error(c, http.StatusInternalServerError, "UPLOAD_FAILED", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
