package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/service"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
)

type stubService struct {
	service.ServiceInterface

	err       error
	claimed   string
	activeSet *bool
}

func (s *stubService) ClaimVoucher(_ context.Context, userID uuid.UUID, code string) (*model.UserVoucher, error) {
	s.claimed = code
	if s.err != nil {
		return nil, s.err
	}
	return &model.UserVoucher{ID: uuid.New(), UserID: userID}, nil
}

func (s *stubService) CreatePromotion(_ context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &model.Promotion{ID: uuid.New(), Name: req.Name}, nil
}

func (s *stubService) SetPromotionActive(_ context.Context, _ uuid.UUID, isActive bool) error {
	s.activeSet = &isActive
	return s.err
}

func newRouter(svc service.ServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authed := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(shared.ContextKeyUserID, uuid.New())
		c.Next()
	})
	public := NewPublicHandler(svc)
	admin := NewAdminHandler(svc)
	authed.POST("/vouchers/claim", public.ClaimVoucher)
	authed.POST("/admin/promotions", admin.CreatePromotion)
	authed.PATCH("/admin/promotions/:id/active", admin.SetPromotionActive)
	return r
}

func send(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var env response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestClaimVoucher(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"claimed", `{"code":"WELCOME"}`, nil, http.StatusCreated, ""},
		{"missing code", `{"code":""}`, nil, http.StatusBadRequest, "VAL_INVALID_INPUT"},
		{"already in wallet", `{"code":"WELCOME"}`, model.ErrVoucherClaimed, http.StatusConflict, string(model.ErrCodeVoucherAlreadyClaimed)},
		{"unknown code", `{"code":"NOPE"}`, model.ErrPromotionNotFound, http.StatusNotFound, string(model.ErrCodePromoNotFound)},
		{"expired", `{"code":"TET2024"}`, model.ErrPromotionExpired, http.StatusBadRequest, string(model.ErrCodePromoExpired)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&stubService{err: tt.err})

			w, env := send(r, http.MethodPost, "/api/v1/vouchers/claim", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				assert.True(t, env.Success)
				return
			}
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestCreatePromotion_ValidationDetails(t *testing.T) {
	r := newRouter(&stubService{})

	w, env := send(r, http.MethodPost, "/api/v1/admin/promotions",
		`{"name":"T","type":"gift","start_date":"2025-02-01T00:00:00Z","end_date":"2025-01-01T00:00:00Z"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VAL_INVALID_INPUT", env.Error.Code)
	details, ok := env.Error.Details.(map[string]interface{})
	require.True(t, ok, "details: %v", env.Error.Details)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "end_date")
	assert.Contains(t, details, "codes")
	assert.Contains(t, details, "gifts")
}

func TestSetPromotionActive(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w, _ := send(r, http.MethodPatch, "/api/v1/admin/promotions/abc/active", `{"is_active":false}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.activeSet)

	w, env := send(r, http.MethodPatch, "/api/v1/admin/promotions/"+uuid.NewString()+"/active", `{"is_active":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	require.NotNil(t, svc.activeSet)
	assert.False(t, *svc.activeSet)

	svc.err = model.ErrPromotionNotFound
	w, env = send(r, http.MethodPatch, "/api/v1/admin/promotions/"+uuid.NewString()+"/active", `{"is_active":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(model.ErrCodePromoNotFound), env.Error.Code)
}
