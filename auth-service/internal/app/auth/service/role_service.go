package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"demeter/auth-service/internal/app/auth/entity"
	"demeter/auth-service/internal/app/auth/repository"
	"demeter/pkg/logger"
)

type RoleService struct {
	roleRepo repository.RoleRepository
}

func NewRoleService(roleRepo repository.RoleRepository) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
	}
}

func (s *RoleService) GetByID(ctx context.Context, id int) (*entity.RoleWithPermissions, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	permissions, err := s.roleRepo.GetPermissionsByRoleID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}

	return &entity.RoleWithPermissions{
		Role:        *role,
		Permissions: permissions,
	}, nil
}

func (s *RoleService) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	role, err := s.roleRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return role, nil
}

func (s *RoleService) List(ctx context.Context) ([]entity.Role, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

func (s *RoleService) Create(ctx context.Context, req *entity.CreateRoleRequest) (*entity.Role, error) {
	existing, err := s.roleRepo.GetByName(ctx, req.Name)
	if err != nil && !errors.Is(err, repository.ErrRoleNotFound) {
		return nil, fmt.Errorf("failed to check role: %w", err)
	}
	if existing != nil {
		return nil, ErrRoleExists
	}

	role := &entity.Role{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	return role, nil
}

func (s *RoleService) Update(ctx context.Context, id int, req *entity.UpdateRoleRequest) (*entity.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	if role.IsSystem {
		return nil, ErrSystemRole
	}

	if req.Name != "" && req.Name != role.Name {
		existing, err := s.roleRepo.GetByName(ctx, req.Name)
		if err != nil && !errors.Is(err, repository.ErrRoleNotFound) {
			return nil, fmt.Errorf("failed to check role: %w", err)
		}
		if existing != nil {
			return nil, ErrRoleExists
		}
		role.Name = req.Name
	}
	if req.Description != "" {
		role.Description = req.Description
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, id int) error {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to get role: %w", err)
	}

	if role.IsSystem {
		return ErrSystemRole
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to delete role: %w", err)
	}

	return nil
}

func (s *RoleService) GetPermissions(ctx context.Context, roleID int) ([]entity.Permission, error) {
	_, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	permissions, err := s.roleRepo.GetPermissionsByRoleID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}

	return permissions, nil
}

func (s *RoleService) AssignPermissions(ctx context.Context, roleID int, permissionIDs []int) error {
	_, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to get role: %w", err)
	}

	if err := s.roleRepo.AssignPermissions(ctx, roleID, permissionIDs); err != nil {
		return fmt.Errorf("failed to assign permissions: %w", err)
	}

	return nil
}

func (s *RoleService) RemovePermissions(ctx context.Context, roleID int, permissionIDs []int) error {
	_, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to get role: %w", err)
	}

	if err := s.roleRepo.RemovePermissions(ctx, roleID, permissionIDs); err != nil {
		return fmt.Errorf("failed to remove permissions: %w", err)
	}

	return nil
}

// defaultPermissions описывает стартовый набор разрешений.
// Первые четыре выдаются роли classificador, полный набор - admin.
var defaultPermissions = []entity.Permission{
	{Name: "classifications:create:own", Resource: "classifications", Action: "create", Scope: "own", Description: "Create own classifications"},
	{Name: "classifications:read:own", Resource: "classifications", Action: "read", Scope: "own", Description: "Read own classifications"},
	{Name: "classifications:update:own", Resource: "classifications", Action: "update", Scope: "own", Description: "Update own classifications"},
	{Name: "classifications:delete:own", Resource: "classifications", Action: "delete", Scope: "own", Description: "Delete own classifications"},
	{Name: "classifications:read:all", Resource: "classifications", Action: "read", Scope: "all", Description: "Read any classification"},
	{Name: "classifications:delete:all", Resource: "classifications", Action: "delete", Scope: "all", Description: "Delete any classification"},
	{Name: "classifications:restore:all", Resource: "classifications", Action: "restore", Scope: "all", Description: "Restore any deleted classification"},
}

const classificadorPermissionCount = 4

// SeedDefaults создаёт системные роли и стартовые разрешения, если их
// ещё нет. Вызывается при запуске сервиса и идемпотентен: существующие
// записи не трогаются, привязки добавляются через ON CONFLICT.
func (s *RoleService) SeedDefaults(ctx context.Context) error {
	permissionIDs := make([]int, 0, len(defaultPermissions))
	for _, p := range defaultPermissions {
		existing, err := s.roleRepo.GetPermissionByName(ctx, p.Name)
		if err != nil {
			if !errors.Is(err, repository.ErrPermissionNotFound) {
				return fmt.Errorf("failed to check permission %s: %w", p.Name, err)
			}

			created := p
			if err := s.roleRepo.CreatePermission(ctx, &created); err != nil {
				return fmt.Errorf("failed to create permission %s: %w", p.Name, err)
			}
			permissionIDs = append(permissionIDs, created.ID)
			continue
		}

		permissionIDs = append(permissionIDs, existing.ID)
	}

	classificador, err := s.ensureSystemRole(ctx, entity.RoleClassificador, "Default role for grain classification operators")
	if err != nil {
		return err
	}

	admin, err := s.ensureSystemRole(ctx, entity.RoleAdmin, "Full access to users, roles and classifications")
	if err != nil {
		return err
	}

	if err := s.roleRepo.AssignPermissions(ctx, classificador.ID, permissionIDs[:classificadorPermissionCount]); err != nil {
		return fmt.Errorf("failed to assign classificador permissions: %w", err)
	}

	if err := s.roleRepo.AssignPermissions(ctx, admin.ID, permissionIDs); err != nil {
		return fmt.Errorf("failed to assign admin permissions: %w", err)
	}

	logger.Info().
		Int("permissions", len(permissionIDs)).
		Msg("Default roles and permissions seeded")

	return nil
}

func (s *RoleService) ensureSystemRole(ctx context.Context, name, description string) (*entity.Role, error) {
	role, err := s.roleRepo.GetByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrRoleNotFound) {
		return nil, fmt.Errorf("failed to check role %s: %w", name, err)
	}

	role = &entity.Role{
		Name:        name,
		Description: description,
		IsSystem:    true,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role %s: %w", name, err)
	}

	return role, nil
}

type PermissionService struct {
	roleRepo repository.RoleRepository
}

func NewPermissionService(roleRepo repository.RoleRepository) *PermissionService {
	return &PermissionService{
		roleRepo: roleRepo,
	}
}

func (s *PermissionService) List(ctx context.Context) ([]entity.Permission, error) {
	permissions, err := s.roleRepo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	return permissions, nil
}

func (s *PermissionService) Create(ctx context.Context, req *entity.CreatePermissionRequest) (*entity.Permission, error) {
	resource, action, scope, err := parsePermissionName(req.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	existing, err := s.roleRepo.GetPermissionByName(ctx, req.Name)
	if err != nil && !errors.Is(err, repository.ErrPermissionNotFound) {
		return nil, fmt.Errorf("failed to check permission: %w", err)
	}
	if existing != nil {
		return nil, ErrPermissionExists
	}

	permission := &entity.Permission{
		Name:        req.Name,
		Resource:    resource,
		Action:      action,
		Scope:       scope,
		Description: req.Description,
	}

	if err := s.roleRepo.CreatePermission(ctx, permission); err != nil {
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}

	return permission, nil
}

func (s *PermissionService) Delete(ctx context.Context, id int) error {
	if err := s.roleRepo.DeletePermission(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPermissionNotFound) {
			return ErrPermissionNotFound
		}
		return fmt.Errorf("failed to delete permission: %w", err)
	}

	return nil
}

// parsePermissionName разбирает имя разрешения вида resource:action:scope
func parsePermissionName(name string) (resource, action, scope string, err error) {
	parts := strings.Split(name, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", errors.New("permission name must have the form resource:action:scope")
	}

	return parts[0], parts[1], parts[2], nil
}
