package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibnelve/api/internal/middleware"
	"ibnelve/api/internal/models"
	"ibnelve/api/internal/repository"
	"ibnelve/api/internal/security"
	"ibnelve/api/internal/service"
	"ibnelve/api/internal/tenant"
)

type memEquipmentStore struct {
	items map[uuid.UUID]*models.Equipment
}

func (m *memEquipmentStore) visible(item *models.Equipment, scope tenant.Scope) bool {
	if item.Deleted {
		return false
	}
	if scope.IsGlobal() {
		return true
	}
	id, _ := scope.TenantID()
	return item.TenantID == id
}

func (m *memEquipmentStore) List(_ context.Context, scope tenant.Scope) ([]models.Equipment, error) {
	if !scope.Valid() {
		return nil, tenant.ErrNoTenant
	}
	out := []models.Equipment{}
	for _, item := range m.items {
		if m.visible(item, scope) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *memEquipmentStore) GetByID(_ context.Context, scope tenant.Scope, id uuid.UUID) (models.Equipment, error) {
	if !scope.Valid() {
		return models.Equipment{}, tenant.ErrNoTenant
	}
	if item, found := m.items[id]; found && m.visible(item, scope) {
		return *item, nil
	}
	return models.Equipment{}, repository.ErrEquipmentNotFound
}

func (m *memEquipmentStore) GetByControlNumber(_ context.Context, scope tenant.Scope, controlNumber string) (models.Equipment, error) {
	if !scope.Valid() {
		return models.Equipment{}, tenant.ErrNoTenant
	}
	for _, item := range m.items {
		if item.ControlNumber == controlNumber && m.visible(item, scope) {
			return *item, nil
		}
	}
	return models.Equipment{}, repository.ErrEquipmentNotFound
}

func (m *memEquipmentStore) GetByIDUnscoped(_ context.Context, id uuid.UUID) (models.Equipment, error) {
	if item, found := m.items[id]; found {
		return *item, nil
	}
	return models.Equipment{}, repository.ErrEquipmentNotFound
}

func (m *memEquipmentStore) Create(_ context.Context, item models.Equipment) error {
	stored := item
	m.items[item.ID] = &stored
	return nil
}

func (m *memEquipmentStore) Update(_ context.Context, scope tenant.Scope, item models.Equipment) error {
	if !scope.Valid() {
		return tenant.ErrNoTenant
	}
	existing, found := m.items[item.ID]
	if !found || !m.visible(existing, scope) {
		return repository.ErrEquipmentNotFound
	}
	stored := item
	m.items[item.ID] = &stored
	return nil
}

func (m *memEquipmentStore) HardDelete(_ context.Context, scope tenant.Scope, id uuid.UUID) error {
	if !scope.Valid() {
		return tenant.ErrNoTenant
	}
	if _, found := m.items[id]; !found {
		return repository.ErrEquipmentNotFound
	}
	delete(m.items, id)
	return nil
}

type equipmentFixture struct {
	handler HandlerSet
	store   *memEquipmentStore
	users   *stubUserStore
	router  *gin.Engine
	user    models.User
}

func newEquipmentFixture(t *testing.T, roles ...string) *equipmentFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := &stubUserStore{users: map[uuid.UUID]models.User{}, roles: map[uuid.UUID][]string{}}
	user := seedUser(t, users, "maria", "s3cret-pass", roles...)

	cfg := testConfig()
	store := &memEquipmentStore{items: map[uuid.UUID]*models.Equipment{}}
	h := HandlerSet{
		log:       zerolog.Nop(),
		cfg:       cfg,
		tokens:    security.NewTokenService(cfg.Security),
		equipment: service.NewEquipmentService(store, zerolog.Nop()),
	}

	router := gin.New()
	group := router.Group("/equipamentos")
	group.Use(middleware.Auth(h.tokens, users))
	group.GET("", h.ListEquipment)
	group.GET("/:id", h.GetEquipment)
	group.POST("", h.CreateEquipment)
	group.PUT("/:id", h.UpdateEquipment)
	group.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.DeleteEquipment)
	group.DELETE("/:id/permanente", middleware.RequireRoles(models.RoleAdmin), h.PurgeEquipment)

	return &equipmentFixture{handler: h, store: store, users: users, router: router, user: user}
}

func (f *equipmentFixture) send(t *testing.T, method, path string, body any, roles ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	token, _, err := f.handler.tokens.Issue(f.user.View(roles))
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateEquipmentHandler(t *testing.T) {
	f := newEquipmentFixture(t)

	rec := f.send(t, http.MethodPost, "/equipamentos",
		gin.H{"name": "Compressor", "controlNumber": "EQ-001"})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	require.Len(t, f.store.items, 1)
	for _, item := range f.store.items {
		assert.Equal(t, *f.user.TenantID, item.TenantID)
		assert.Equal(t, models.EquipmentStatusActive, item.Status)
	}
}

func TestCreateEquipmentHandlerConflict(t *testing.T) {
	f := newEquipmentFixture(t)

	rec := f.send(t, http.MethodPost, "/equipamentos",
		gin.H{"name": "Compressor", "controlNumber": "EQ-001"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.send(t, http.MethodPost, "/equipamentos",
		gin.H{"name": "Other", "controlNumber": "EQ-001"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestUpdateEquipmentHandlerIDMismatch(t *testing.T) {
	f := newEquipmentFixture(t)

	otherID := uuid.New()
	rec := f.send(t, http.MethodPut, "/equipamentos/"+uuid.NewString(),
		gin.H{"id": otherID, "name": "A", "controlNumber": "EQ-001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteEquipmentHandlerRequiresRole(t *testing.T) {
	f := newEquipmentFixture(t)

	rec := f.send(t, http.MethodPost, "/equipamentos",
		gin.H{"name": "Compressor", "controlNumber": "EQ-001"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var id uuid.UUID
	for itemID := range f.store.items {
		id = itemID
	}

	rec = f.send(t, http.MethodDelete, "/equipamentos/"+id.String(), nil, models.RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.send(t, http.MethodDelete, "/equipamentos/"+id.String(), nil, models.RoleManager)
	require.Equal(t, http.StatusOK, rec.Code)

	// Logical: the row survives, hidden and inactive.
	stored := f.store.items[id]
	require.NotNil(t, stored)
	assert.True(t, stored.Deleted)
	assert.Equal(t, models.EquipmentStatusInactive, stored.Status)

	listRec := f.send(t, http.MethodGet, "/equipamentos", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	resp := decodeEnvelope(t, listRec)
	items, found := resp.Data.([]any)
	require.True(t, found)
	assert.Empty(t, items)
}

func TestPurgeEquipmentHandlerIsAdminOnly(t *testing.T) {
	f := newEquipmentFixture(t)

	rec := f.send(t, http.MethodPost, "/equipamentos",
		gin.H{"name": "Compressor", "controlNumber": "EQ-001"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var id uuid.UUID
	for itemID := range f.store.items {
		id = itemID
	}

	rec = f.send(t, http.MethodDelete, "/equipamentos/"+id.String()+"/permanente", nil, models.RoleManager)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.send(t, http.MethodDelete, "/equipamentos/"+id.String()+"/permanente", nil, models.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.store.items)
}
