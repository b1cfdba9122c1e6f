package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body, c
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		h       gin.HandlerFunc
		code    int
		message string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "Email is required") }, http.StatusBadRequest, "Email is required"},
		{"not found", func(c *gin.Context) { NotFoundMsg(c, "Email not found") }, http.StatusNotFound, "Email not found"},
		{"default not found", NotFound, http.StatusNotFound, "Not Found"},
		{"method", MethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"throttled", TooManyRequests, http.StatusTooManyRequests, "Too many requests, slow down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body, c := serve(t, tt.h)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, float64(0), body["ok"])
			assert.Equal(t, float64(tt.code), body["code"])
			assert.Equal(t, tt.message, body["message"])
			assert.True(t, c.IsAborted())
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	rec, body, c := serve(t, func(c *gin.Context) { InternalError(c, errors.New("mongo: connection refused")) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalMessage, body["message"])
	require.Len(t, c.Errors, 1)
	assert.EqualError(t, c.Errors[0].Err, "mongo: connection refused")
}

func TestOK(t *testing.T) {
	rec, body, _ := serve(t, func(c *gin.Context) { OK(c, gin.H{"siteLive": true}) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["siteLive"])
}
