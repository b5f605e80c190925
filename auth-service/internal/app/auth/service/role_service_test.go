package service

import (
	"context"
	"testing"

	"demeter/auth-service/internal/app/auth/entity"
	"demeter/auth-service/internal/app/auth/repository"
	"demeter/auth-service/internal/app/auth/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRoleService() (*RoleService, *mocks.MockRoleRepository) {
	roleRepo := new(mocks.MockRoleRepository)
	return NewRoleService(roleRepo), roleRepo
}

// ==================== Role CRUD Tests ====================

func TestRoleService_GetByID_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	role := newTestRole()
	permissions := []entity.Permission{
		{ID: 1, Name: "classifications:read:own", Resource: "classifications", Action: "read", Scope: "own"},
	}
	roleRepo.On("GetByID", ctx, role.ID).Return(role, nil)
	roleRepo.On("GetPermissionsByRoleID", ctx, role.ID).Return(permissions, nil)

	// Act
	result, err := svc.GetByID(ctx, role.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, role.Name, result.Name)
	assert.Len(t, result.Permissions, 1)
}

func TestRoleService_GetByID_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	roleRepo.On("GetByID", ctx, 99).Return(nil, repository.ErrRoleNotFound)

	// Act
	result, err := svc.GetByID(ctx, 99)

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestRoleService_Create_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	roleRepo.On("GetByName", ctx, "supervisor").Return(nil, repository.ErrRoleNotFound)
	roleRepo.On("Create", ctx, mock.AnythingOfType("*entity.Role")).Return(nil)

	req := &entity.CreateRoleRequest{Name: "supervisor", Description: "Shift supervisor"}

	// Act
	result, err := svc.Create(ctx, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "supervisor", result.Name)
	assert.False(t, result.IsSystem)
}

func TestRoleService_Create_DuplicateName(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	roleRepo.On("GetByName", ctx, entity.RoleAdmin).Return(newTestAdminRole(), nil)

	req := &entity.CreateRoleRequest{Name: entity.RoleAdmin}

	// Act
	result, err := svc.Create(ctx, req)

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrRoleExists)
	roleRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRoleService_Update_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	role := &entity.Role{ID: 5, Name: "supervisor", Description: "Old"}
	roleRepo.On("GetByID", ctx, 5).Return(role, nil)
	roleRepo.On("Update", ctx, mock.AnythingOfType("*entity.Role")).Return(nil)

	req := &entity.UpdateRoleRequest{Description: "Shift supervisor"}

	// Act
	result, err := svc.Update(ctx, 5, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Shift supervisor", result.Description)
}

func TestRoleService_Update_SystemRole(t *testing.T) {
	// Системные роли защищены от изменения
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	roleRepo.On("GetByID", ctx, 2).Return(newTestAdminRole(), nil)

	req := &entity.UpdateRoleRequest{Name: "superadmin"}

	// Act
	result, err := svc.Update(ctx, 2, req)

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSystemRole)
	roleRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRoleService_Update_RenameConflict(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	role := &entity.Role{ID: 5, Name: "supervisor"}
	roleRepo.On("GetByID", ctx, 5).Return(role, nil)
	roleRepo.On("GetByName", ctx, "auditor").Return(&entity.Role{ID: 6, Name: "auditor"}, nil)

	req := &entity.UpdateRoleRequest{Name: "auditor"}

	// Act
	result, err := svc.Update(ctx, 5, req)

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrRoleExists)
}

func TestRoleService_Delete_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	roleRepo.On("GetByID", ctx, 5).Return(&entity.Role{ID: 5, Name: "supervisor"}, nil)
	roleRepo.On("Delete", ctx, 5).Return(nil)

	// Act
	err := svc.Delete(ctx, 5)

	// Assert
	require.NoError(t, err)
	roleRepo.AssertExpectations(t)
}

func TestRoleService_Delete_SystemRole(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	roleRepo.On("GetByID", ctx, 1).Return(newTestRole(), nil)

	// Act
	err := svc.Delete(ctx, 1)

	// Assert
	assert.ErrorIs(t, err, ErrSystemRole)
	roleRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ==================== Role Permission Tests ====================

func TestRoleService_GetPermissions_RoleNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	roleRepo.On("GetByID", ctx, 99).Return(nil, repository.ErrRoleNotFound)

	// Act
	result, err := svc.GetPermissions(ctx, 99)

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestRoleService_AssignPermissions_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	roleRepo.On("GetByID", ctx, 5).Return(&entity.Role{ID: 5, Name: "supervisor"}, nil)
	roleRepo.On("AssignPermissions", ctx, 5, []int{1, 2}).Return(nil)

	// Act
	err := svc.AssignPermissions(ctx, 5, []int{1, 2})

	// Assert
	require.NoError(t, err)
	roleRepo.AssertExpectations(t)
}

// ==================== SeedDefaults Tests ====================

func TestRoleService_SeedDefaults_FreshDatabase(t *testing.T) {
	// На пустой базе создаются все разрешения и обе системные роли
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	nextPermissionID := 0
	roleRepo.On("GetPermissionByName", ctx, mock.AnythingOfType("string")).Return(nil, repository.ErrPermissionNotFound)
	roleRepo.On("CreatePermission", ctx, mock.AnythingOfType("*entity.Permission")).Run(func(args mock.Arguments) {
		nextPermissionID++
		args.Get(1).(*entity.Permission).ID = nextPermissionID
	}).Return(nil)

	roleRepo.On("GetByName", ctx, entity.RoleClassificador).Return(nil, repository.ErrRoleNotFound)
	roleRepo.On("GetByName", ctx, entity.RoleAdmin).Return(nil, repository.ErrRoleNotFound)
	roleRepo.On("Create", ctx, mock.AnythingOfType("*entity.Role")).Run(func(args mock.Arguments) {
		role := args.Get(1).(*entity.Role)
		if role.Name == entity.RoleClassificador {
			role.ID = 1
		} else {
			role.ID = 2
		}
	}).Return(nil)

	roleRepo.On("AssignPermissions", ctx, 1, []int{1, 2, 3, 4}).Return(nil)
	roleRepo.On("AssignPermissions", ctx, 2, []int{1, 2, 3, 4, 5, 6, 7}).Return(nil)

	// Act
	err := svc.SeedDefaults(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 7, nextPermissionID)
	roleRepo.AssertExpectations(t)
}

func TestRoleService_SeedDefaults_Idempotent(t *testing.T) {
	// Повторный запуск не создаёт ни разрешений, ни ролей
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	for i, p := range defaultPermissions {
		existing := p
		existing.ID = i + 1
		roleRepo.On("GetPermissionByName", ctx, p.Name).Return(&existing, nil)
	}

	roleRepo.On("GetByName", ctx, entity.RoleClassificador).Return(newTestRole(), nil)
	roleRepo.On("GetByName", ctx, entity.RoleAdmin).Return(newTestAdminRole(), nil)
	roleRepo.On("AssignPermissions", ctx, 1, []int{1, 2, 3, 4}).Return(nil)
	roleRepo.On("AssignPermissions", ctx, 2, []int{1, 2, 3, 4, 5, 6, 7}).Return(nil)

	// Act
	err := svc.SeedDefaults(ctx)

	// Assert
	require.NoError(t, err)
	roleRepo.AssertNotCalled(t, "CreatePermission", mock.Anything, mock.Anything)
	roleRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRoleService_SeedDefaults_MarksRolesAsSystem(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestRoleService()

	var createdRoles []entity.Role

	roleRepo.On("GetPermissionByName", ctx, mock.AnythingOfType("string")).Return(&entity.Permission{ID: 1}, nil)
	roleRepo.On("GetByName", ctx, mock.AnythingOfType("string")).Return(nil, repository.ErrRoleNotFound)
	roleRepo.On("Create", ctx, mock.AnythingOfType("*entity.Role")).Run(func(args mock.Arguments) {
		role := args.Get(1).(*entity.Role)
		role.ID = len(createdRoles) + 1
		createdRoles = append(createdRoles, *role)
	}).Return(nil)
	roleRepo.On("AssignPermissions", ctx, mock.AnythingOfType("int"), mock.AnythingOfType("[]int")).Return(nil)

	// Act
	err := svc.SeedDefaults(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, createdRoles, 2)
	for _, role := range createdRoles {
		assert.True(t, role.IsSystem, "seeded role %s must be a system role", role.Name)
	}
}

// ==================== PermissionService Tests ====================

func newTestPermissionService() (*PermissionService, *mocks.MockRoleRepository) {
	roleRepo := new(mocks.MockRoleRepository)
	return NewPermissionService(roleRepo), roleRepo
}

func TestPermissionService_Create_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestPermissionService()

	roleRepo.On("GetPermissionByName", ctx, "reports:read:all").Return(nil, repository.ErrPermissionNotFound)
	roleRepo.On("CreatePermission", ctx, mock.AnythingOfType("*entity.Permission")).Return(nil)

	req := &entity.CreatePermissionRequest{Name: "reports:read:all", Description: "Read all reports"}

	// Act
	result, err := svc.Create(ctx, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "reports", result.Resource)
	assert.Equal(t, "read", result.Action)
	assert.Equal(t, "all", result.Scope)
}

func TestPermissionService_Create_InvalidName(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestPermissionService()

	testCases := []struct {
		name           string
		permissionName string
	}{
		{name: "Missing scope", permissionName: "reports:read"},
		{name: "Empty segment", permissionName: "reports::all"},
		{name: "Too many segments", permissionName: "reports:read:all:extra"},
		{name: "Plain word", permissionName: "reports"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			result, err := svc.Create(ctx, &entity.CreatePermissionRequest{Name: tc.permissionName})

			// Assert
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	roleRepo.AssertNotCalled(t, "CreatePermission", mock.Anything, mock.Anything)
}

func TestPermissionService_Create_Duplicate(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestPermissionService()

	existing := &entity.Permission{ID: 1, Name: "reports:read:all"}
	roleRepo.On("GetPermissionByName", ctx, "reports:read:all").Return(existing, nil)

	req := &entity.CreatePermissionRequest{Name: "reports:read:all"}

	// Act
	result, err := svc.Create(ctx, req)

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrPermissionExists)
}

func TestPermissionService_Delete_NotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, roleRepo := newTestPermissionService()

	roleRepo.On("DeletePermission", ctx, 99).Return(repository.ErrPermissionNotFound)

	// Act
	err := svc.Delete(ctx, 99)

	// Assert
	assert.ErrorIs(t, err, ErrPermissionNotFound)
}
