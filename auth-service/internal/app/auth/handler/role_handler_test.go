package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"demeter/auth-service/internal/app/auth/entity"
	"demeter/auth-service/internal/app/auth/repository"
	"demeter/auth-service/internal/app/auth/repository/mocks"
	"demeter/auth-service/internal/app/auth/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRoleHandler() (*RoleHandler, *mocks.MockRoleRepository) {
	roleRepo := new(mocks.MockRoleRepository)

	roleService := service.NewRoleService(roleRepo)
	permissionService := service.NewPermissionService(roleRepo)
	handler := NewRoleHandler(roleService, permissionService)

	return handler, roleRepo
}

// ==================== Role Handler Tests ====================

func TestRoleHandler_ListRoles_Success(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roles := []entity.Role{
		{ID: 1, Name: entity.RoleClassificador, IsSystem: true},
		{ID: 2, Name: entity.RoleAdmin, IsSystem: true},
	}
	roleRepo.On("List", mock.Anything).Return(roles, nil)

	router := setupTestRouter(http.MethodGet, "/admin/roles", handler.ListRoles)
	req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)

	var response []entity.Role
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Len(t, response, 2)
}

func TestRoleHandler_GetRole_WithPermissions(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	role := newTestRole()
	permissions := []entity.Permission{
		{ID: 1, Name: "classifications:read:own", Resource: "classifications", Action: "read", Scope: "own"},
	}
	roleRepo.On("GetByID", mock.Anything, role.ID).Return(role, nil)
	roleRepo.On("GetPermissionsByRoleID", mock.Anything, role.ID).Return(permissions, nil)

	router := setupTestRouter(http.MethodGet, "/admin/roles/:id", handler.GetRole)
	req := httptest.NewRequest(http.MethodGet, "/admin/roles/1", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)

	var response entity.RoleWithPermissions
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, entity.RoleClassificador, response.Name)
	assert.Len(t, response.Permissions, 1)
}

func TestRoleHandler_GetRole_InvalidID(t *testing.T) {
	// Arrange
	handler, _ := newTestRoleHandler()

	router := setupTestRouter(http.MethodGet, "/admin/roles/:id", handler.GetRole)
	req := httptest.NewRequest(http.MethodGet, "/admin/roles/abc", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var response map[string]string
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "Invalid role ID", response["message"])
}

func TestRoleHandler_GetRole_NotFound(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetByID", mock.Anything, 99).Return(nil, repository.ErrRoleNotFound)

	router := setupTestRouter(http.MethodGet, "/admin/roles/:id", handler.GetRole)
	req := httptest.NewRequest(http.MethodGet, "/admin/roles/99", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoleHandler_CreateRole_Success(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetByName", mock.Anything, "supervisor").Return(nil, repository.ErrRoleNotFound)
	roleRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Role")).Return(nil)

	payload := entity.CreateRoleRequest{Name: "supervisor", Description: "Shift supervisor"}

	router := setupTestRouter(http.MethodPost, "/admin/roles", handler.CreateRole)
	req := jsonRequest(http.MethodPost, "/admin/roles", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response entity.Role
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "supervisor", response.Name)
}

func TestRoleHandler_CreateRole_ShortName(t *testing.T) {
	// Arrange
	handler, _ := newTestRoleHandler()

	payload := entity.CreateRoleRequest{Name: "a"}

	router := setupTestRouter(http.MethodPost, "/admin/roles", handler.CreateRole)
	req := jsonRequest(http.MethodPost, "/admin/roles", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var response entity.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Contains(t, response.Message, "name must be at least 2 characters long")
}

func TestRoleHandler_CreateRole_Duplicate(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetByName", mock.Anything, "supervisor").Return(&entity.Role{ID: 5, Name: "supervisor"}, nil)

	payload := entity.CreateRoleRequest{Name: "supervisor"}

	router := setupTestRouter(http.MethodPost, "/admin/roles", handler.CreateRole)
	req := jsonRequest(http.MethodPost, "/admin/roles", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRoleHandler_UpdateRole_SystemRole(t *testing.T) {
	// Системную роль нельзя изменить через API
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetByID", mock.Anything, 2).Return(&entity.Role{ID: 2, Name: entity.RoleAdmin, IsSystem: true}, nil)

	payload := entity.UpdateRoleRequest{Name: "superadmin"}

	router := setupTestRouter(http.MethodPatch, "/admin/roles/:id", handler.UpdateRole)
	req := jsonRequest(http.MethodPatch, "/admin/roles/2", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)

	var response map[string]string
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "System role cannot be modified", response["message"])
}

func TestRoleHandler_DeleteRole_SystemRole(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetByID", mock.Anything, 1).Return(newTestRole(), nil)

	router := setupTestRouter(http.MethodDelete, "/admin/roles/:id", handler.DeleteRole)
	req := httptest.NewRequest(http.MethodDelete, "/admin/roles/1", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)

	var response map[string]string
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "System role cannot be deleted", response["message"])
}

func TestRoleHandler_DeleteRole_Success(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetByID", mock.Anything, 5).Return(&entity.Role{ID: 5, Name: "supervisor"}, nil)
	roleRepo.On("Delete", mock.Anything, 5).Return(nil)

	router := setupTestRouter(http.MethodDelete, "/admin/roles/:id", handler.DeleteRole)
	req := httptest.NewRequest(http.MethodDelete, "/admin/roles/5", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	roleRepo.AssertExpectations(t)
}

// ==================== Role Permissions Handler Tests ====================

func TestRoleHandler_GetRolePermissions_Success(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	role := newTestRole()
	permissions := []entity.Permission{
		{ID: 1, Name: "classifications:create:own"},
		{ID: 2, Name: "classifications:read:own"},
	}
	roleRepo.On("GetByID", mock.Anything, role.ID).Return(role, nil)
	roleRepo.On("GetPermissionsByRoleID", mock.Anything, role.ID).Return(permissions, nil)

	router := setupTestRouter(http.MethodGet, "/admin/roles/:id/permissions", handler.GetRolePermissions)
	req := httptest.NewRequest(http.MethodGet, "/admin/roles/1/permissions", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)

	var response []entity.Permission
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Len(t, response, 2)
}

func TestRoleHandler_AssignPermissions_Success(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetByID", mock.Anything, 5).Return(&entity.Role{ID: 5, Name: "supervisor"}, nil)
	roleRepo.On("AssignPermissions", mock.Anything, 5, []int{1, 2}).Return(nil)

	payload := entity.AssignPermissionsRequest{PermissionIDs: []int{1, 2}}

	router := setupTestRouter(http.MethodPost, "/admin/roles/:id/permissions", handler.AssignPermissions)
	req := jsonRequest(http.MethodPost, "/admin/roles/5/permissions", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	roleRepo.AssertExpectations(t)
}

func TestRoleHandler_AssignPermissions_EmptyList(t *testing.T) {
	// Arrange
	handler, _ := newTestRoleHandler()

	payload := entity.AssignPermissionsRequest{PermissionIDs: []int{}}

	router := setupTestRouter(http.MethodPost, "/admin/roles/:id/permissions", handler.AssignPermissions)
	req := jsonRequest(http.MethodPost, "/admin/roles/5/permissions", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRoleHandler_RemovePermissions_RoleNotFound(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetByID", mock.Anything, 99).Return(nil, repository.ErrRoleNotFound)

	payload := entity.AssignPermissionsRequest{PermissionIDs: []int{1}}

	router := setupTestRouter(http.MethodDelete, "/admin/roles/:id/permissions", handler.RemovePermissions)
	req := jsonRequest(http.MethodDelete, "/admin/roles/99/permissions", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==================== Permission Handler Tests ====================

func TestRoleHandler_ListPermissions_Success(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	permissions := []entity.Permission{
		{ID: 1, Name: "classifications:create:own"},
		{ID: 2, Name: "classifications:read:all"},
	}
	roleRepo.On("ListPermissions", mock.Anything).Return(permissions, nil)

	router := setupTestRouter(http.MethodGet, "/admin/permissions", handler.ListPermissions)
	req := httptest.NewRequest(http.MethodGet, "/admin/permissions", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)

	var response []entity.Permission
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Len(t, response, 2)
}

func TestRoleHandler_CreatePermission_Success(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("GetPermissionByName", mock.Anything, "reports:read:all").Return(nil, repository.ErrPermissionNotFound)
	roleRepo.On("CreatePermission", mock.Anything, mock.AnythingOfType("*entity.Permission")).Return(nil)

	payload := entity.CreatePermissionRequest{Name: "reports:read:all", Description: "Read all reports"}

	router := setupTestRouter(http.MethodPost, "/admin/permissions", handler.CreatePermission)
	req := jsonRequest(http.MethodPost, "/admin/permissions", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusCreated, rec.Code)

	var response entity.Permission
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Equal(t, "reports", response.Resource)
	assert.Equal(t, "read", response.Action)
	assert.Equal(t, "all", response.Scope)
}

func TestRoleHandler_CreatePermission_MalformedName(t *testing.T) {
	// Имя разрешения обязано иметь формат resource:action:scope
	handler, _ := newTestRoleHandler()

	payload := entity.CreatePermissionRequest{Name: "reports-read-all"}

	router := setupTestRouter(http.MethodPost, "/admin/permissions", handler.CreatePermission)
	req := jsonRequest(http.MethodPost, "/admin/permissions", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var response map[string]string
	json.Unmarshal(rec.Body.Bytes(), &response)
	assert.Contains(t, response["message"], "resource:action:scope")
}

func TestRoleHandler_CreatePermission_Duplicate(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	existing := &entity.Permission{ID: 1, Name: "reports:read:all"}
	roleRepo.On("GetPermissionByName", mock.Anything, "reports:read:all").Return(existing, nil)

	payload := entity.CreatePermissionRequest{Name: "reports:read:all"}

	router := setupTestRouter(http.MethodPost, "/admin/permissions", handler.CreatePermission)
	req := jsonRequest(http.MethodPost, "/admin/permissions", payload)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRoleHandler_DeletePermission_NotFound(t *testing.T) {
	// Arrange
	handler, roleRepo := newTestRoleHandler()

	roleRepo.On("DeletePermission", mock.Anything, 99).Return(repository.ErrPermissionNotFound)

	router := setupTestRouter(http.MethodDelete, "/admin/permissions/:id", handler.DeletePermission)
	req := httptest.NewRequest(http.MethodDelete, "/admin/permissions/99", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
