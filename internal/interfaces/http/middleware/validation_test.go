package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/schoolfee/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feeRequest struct {
	Name     string `json:"name" binding:"required,max=5"`
	FeeCycle string `json:"fee_cycle" binding:"required,fee_cycle"`
	Mode     string `json:"payment_mode" binding:"omitempty,payment_mode"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterValidations(v))
	return v
}

func TestRegisterValidations_CustomTags(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name string
		req  feeRequest
		ok   bool
	}{
		{"snake case cycle", feeRequest{Name: "a", FeeCycle: "one_time"}, true},
		{"hyphenated upper case cycle", feeRequest{Name: "a", FeeCycle: "One-Time"}, true},
		{"per bill cycle", feeRequest{Name: "a", FeeCycle: "per_bill"}, true},
		{"unknown cycle", feeRequest{Name: "a", FeeCycle: "weekly"}, false},
		{"bank transfer mode", feeRequest{Name: "a", FeeCycle: "monthly", Mode: "bank-transfer"}, true},
		{"unknown mode", feeRequest{Name: "a", FeeCycle: "monthly", Mode: "barter"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	v := newValidator(t)

	err := v.Struct(feeRequest{Name: "too long", FeeCycle: "weekly", Page: -1})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-1")
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.ElementsMatch(t, []dto.ValidationDetail{
		{Field: "name", Message: "Must be at most 5 characters"},
		{Field: "fee_cycle", Message: "Must be one of: monthly quarterly yearly one_time per_bill"},
		{Field: "page", Message: "Must be at least 1"},
	}, resp.Error.Details)

	resp = FormatValidationErrors(errors.New("unexpected EOF"), "req-2")
	assert.Equal(t, "Malformed request body", resp.Error.Message)
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError(t *testing.T) {
	require.NoError(t, SetupValidator())

	router := gin.New()
	router.Use(RequestID())
	router.POST("/fees", func(c *gin.Context) {
		var req feeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})

	t.Run("field errors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/fees", strings.NewReader(`{"name":"ok","fee_cycle":"fortnightly"}`))
		req.Header.Set(RequestIDHeader, "req-9")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "fee_cycle", resp.Error.Details[0].Field)
		assert.Equal(t, "req-9", resp.Error.RequestID)
	})

	t.Run("valid request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/fees", strings.NewReader(`{"name":"ok","fee_cycle":"quarterly"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
