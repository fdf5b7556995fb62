package claim

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(f *fixture, residentID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", residentID) })
	NewHandler(f.service).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestGetClaimsByBuilding_UnknownBuildingIs404(t *testing.T) {
	f := setupFixture(t)
	r := setupRouter(f, f.amir.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims/building/99999", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"NOT_FOUND"`)
}

func TestGetClaimsByBuilding_KnownBuildingIs200(t *testing.T) {
	f := setupFixture(t)
	r := setupRouter(f, f.amir.ID)

	w := httptest.NewRecorder()
	url := fmt.Sprintf("/api/v1/claims/building/%d", f.building.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}
