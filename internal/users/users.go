// Package users is the credential store: it owns user records and their
// bcrypt-hashed secrets.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"todorbac/internal/apperr"
	"todorbac/internal/auth"
	"todorbac/internal/models"
)

const MinSecretLen = 6

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

// Register validates input, rejects a known email and stores a bcrypt hash of
// rawSecret. The user row and its roleIDs assignments commit together: if any
// assignment fails, no user is left behind.
func (s *Service) Register(ctx context.Context, name, email, rawSecret string, roleIDs ...int) (models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return models.User{}, apperr.New(apperr.KindValidation, "name is required")
	}
	if !validEmail(email) {
		return models.User{}, apperr.New(apperr.KindValidation, "email must be valid")
	}
	if utf8.RuneCountInString(rawSecret) < MinSecretLen {
		return models.User{}, apperr.Newf(apperr.KindValidation, "password must be at least %d characters", MinSecretLen)
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return models.User{}, apperr.Internal(err)
	}
	if count > 0 {
		return models.User{}, apperr.ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(rawSecret)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	u := models.User{Name: name, Email: email, PasswordHash: hash}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := insert(tx, &u); err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			err := tx.Table(models.TableUserRoles).Create(map[string]any{
				"user_id": u.ID,
				"role_id": roleID,
			}).Error
			if err != nil {
				return apperr.Internal(fmt.Errorf("assign role %d: %w", roleID, err))
			}
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	s.lg.Infow("user registered", "user_id", u.ID, "roles", roleIDs)
	return u, nil
}

// insert relies on the unique index when a concurrent signup wins the race
// between the existence check and the insert.
func insert(db *gorm.DB, u *models.User) error {
	err := db.Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrDuplicateEmail
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Verify looks up email and checks rawSecret against the stored hash. An
// unknown email is NotFound and a wrong secret is InvalidSecret; callers at
// the HTTP boundary report both the same way.
func (s *Service) Verify(ctx context.Context, email, rawSecret string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	ok, err := auth.PasswordMatches(u.PasswordHash, rawSecret)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	if !ok {
		return models.User{}, apperr.ErrInvalidSecret
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	return u, nil
}

// Me loads a user with roles and todos, todos in creation order.
func (s *Service) Me(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Preload("Roles", func(tx *gorm.DB) *gorm.DB { return tx.Order("roles.id") }).
		Preload("Roles.Permissions", func(tx *gorm.DB) *gorm.DB { return tx.Order("permissions.id") }).
		Preload("Todos", func(tx *gorm.DB) *gorm.DB { return tx.Order("todos.id") }).
		First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Preload("Roles").Order("created_at").Find(&users).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}
