package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, reg := NewTestManagerAndRegistry()

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues(http.MethodGet, "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
