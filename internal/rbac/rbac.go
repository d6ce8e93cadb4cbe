// Package rbac owns the role/permission graph: roles, permissions and the
// user->role and role->permission edges.
package rbac

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"todorbac/internal/apperr"
	"todorbac/internal/models"
)

const (
	tableUserRoles       = models.TableUserRoles
	tableRolePermissions = models.TableRolePermissions
)

type Service struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewService(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Service{db: db, lg: lg}
}

func (s *Service) CreateRole(ctx context.Context, name string) (models.Role, error) {
	name, err := cleanName("role", name)
	if err != nil {
		return models.Role{}, err
	}
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return models.Role{}, apperr.Internal(err)
	}
	if count > 0 {
		return models.Role{}, apperr.Newf(apperr.KindDuplicateName, "role %q already exists", name)
	}
	r := models.Role{Name: name}
	if err := create(db, &r, "role", name); err != nil {
		return models.Role{}, err
	}
	r.Permissions = []models.Permission{}
	s.lg.Infow("role created", "role_id", r.ID, "name", name)
	return r, nil
}

func (s *Service) CreatePermission(ctx context.Context, name string) (models.Permission, error) {
	name, err := cleanName("permission", name)
	if err != nil {
		return models.Permission{}, err
	}
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Permission{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return models.Permission{}, apperr.Internal(err)
	}
	if count > 0 {
		return models.Permission{}, apperr.Newf(apperr.KindDuplicateName, "permission %q already exists", name)
	}
	p := models.Permission{Name: name}
	if err := create(db, &p, "permission", name); err != nil {
		return models.Permission{}, err
	}
	s.lg.Infow("permission created", "permission_id", p.ID, "name", name)
	return p, nil
}

// create inserts a named row. The existence check before it is not atomic,
// so a concurrent insert can still trip the unique index.
func create(db *gorm.DB, value any, kind, name string) error {
	err := db.Create(value).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Newf(apperr.KindDuplicateName, "%s %q already exists", kind, name)
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) GrantPermissionToRole(ctx context.Context, roleID, permissionID int) error {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Role{}, "id = ?", roleID, "role not found"); err != nil {
		return err
	}
	if err := exists(db, &models.Permission{}, "id = ?", permissionID, "permission not found"); err != nil {
		return err
	}
	var count int64
	err := db.Table(tableRolePermissions).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&count).Error
	if err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.ErrAlreadyGranted
	}
	err = db.Table(tableRolePermissions).Create(map[string]any{
		"role_id":       roleID,
		"permission_id": permissionID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrAlreadyGranted
	}
	if err != nil {
		return apperr.Internal(err)
	}
	s.lg.Infow("permission granted", "role_id", roleID, "permission_id", permissionID)
	return nil
}

func (s *Service) AssignRoleToUser(ctx context.Context, userID string, roleID int) error {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.User{}, "id = ?", userID, "user not found"); err != nil {
		return err
	}
	if err := exists(db, &models.Role{}, "id = ?", roleID, "role not found"); err != nil {
		return err
	}
	var count int64
	err := db.Table(tableUserRoles).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	if err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.ErrAlreadyAssigned
	}
	err = db.Table(tableUserRoles).Create(map[string]any{
		"user_id": userID,
		"role_id": roleID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrAlreadyAssigned
	}
	if err != nil {
		return apperr.Internal(err)
	}
	s.lg.Infow("role assigned", "user_id", userID, "role_id", roleID)
	return nil
}

// RolesOf returns the roles held by userID with their permissions joined in.
// An unknown user simply holds no roles.
func (s *Service) RolesOf(ctx context.Context, userID string) ([]models.Role, error) {
	roles := []models.Role{}
	err := s.db.WithContext(ctx).
		Preload("Permissions", func(tx *gorm.DB) *gorm.DB { return tx.Order("permissions.id") }).
		Joins("JOIN "+tableUserRoles+" ON "+tableUserRoles+".role_id = roles.id").
		Where(tableUserRoles+".user_id = ?", userID).
		Order("roles.id").
		Find(&roles).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return roles, nil
}

func (s *Service) RoleByName(ctx context.Context, name string) (models.Role, error) {
	var r models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&r, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Role{}, apperr.New(apperr.KindNotFound, "role not found")
	}
	if err != nil {
		return models.Role{}, apperr.Internal(err)
	}
	return r, nil
}

func (s *Service) PermissionByName(ctx context.Context, name string) (models.Permission, error) {
	var p models.Permission
	err := s.db.WithContext(ctx).First(&p, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Permission{}, apperr.New(apperr.KindNotFound, "permission not found")
	}
	if err != nil {
		return models.Permission{}, apperr.Internal(err)
	}
	return p, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles := []models.Role{}
	err := s.db.WithContext(ctx).
		Preload("Permissions", func(tx *gorm.DB) *gorm.DB { return tx.Order("permissions.id") }).
		Order("id").Find(&roles).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return roles, nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	perms := []models.Permission{}
	if err := s.db.WithContext(ctx).Order("id").Find(&perms).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return perms, nil
}

func exists(db *gorm.DB, model any, query string, arg any, notFound string) error {
	var count int64
	if err := db.Model(model).Where(query, arg).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count == 0 {
		return apperr.New(apperr.KindNotFound, notFound)
	}
	return nil
}

func cleanName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Newf(apperr.KindValidation, "%s name is required", kind)
	}
	return name, nil
}
