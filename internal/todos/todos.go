// Package todos owns todo items scoped to their owning user.
package todos

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"todorbac/internal/apperr"
	"todorbac/internal/models"
)

// DeleteAnyCapability lets its holder delete todos owned by other users.
const DeleteAnyCapability = "delete:todos"

var errTodoNotFound = apperr.New(apperr.KindNotFound, "todo not found")

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

// List returns userID's todos in creation order.
func (s *Service) List(ctx context.Context, userID string) ([]models.Todo, error) {
	todos := []models.Todo{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&todos).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return todos, nil
}

// Create stores a new todo. An empty status means PENDING.
func (s *Service) Create(ctx context.Context, userID, title string, status string) (models.Todo, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return models.Todo{}, err
	}
	st := models.StatusPending
	if strings.TrimSpace(status) != "" {
		var ok bool
		if st, ok = models.ParseTodoStatus(status); !ok {
			return models.Todo{}, apperr.Newf(apperr.KindValidation, "invalid status %q", status)
		}
	}
	db := s.db.WithContext(ctx)
	var owners int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&owners).Error; err != nil {
		return models.Todo{}, apperr.Internal(err)
	}
	if owners == 0 {
		return models.Todo{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	t := models.Todo{Title: title, Status: st, UserID: userID}
	if err := db.Create(&t).Error; err != nil {
		return models.Todo{}, apperr.Internal(err)
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, id int64, userID, title string) (models.Todo, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return models.Todo{}, err
	}
	t, err := s.owned(ctx, id, userID)
	if err != nil {
		return models.Todo{}, err
	}
	t.Title = title
	if err := s.db.WithContext(ctx).Model(&t).Update("title", title).Error; err != nil {
		return models.Todo{}, apperr.Internal(err)
	}
	return t, nil
}

// ToggleCompletion flips the completion flag. It is a read-then-write, so
// concurrent toggles of the same todo can lose an update.
func (s *Service) ToggleCompletion(ctx context.Context, id int64, userID string) (models.Todo, error) {
	t, err := s.owned(ctx, id, userID)
	if err != nil {
		return models.Todo{}, err
	}
	t.Completed = !t.Completed
	if err := s.db.WithContext(ctx).Model(&t).Update("completed", t.Completed).Error; err != nil {
		return models.Todo{}, apperr.Internal(err)
	}
	return t, nil
}

// UpdateStatus moves a todo to any other status; setting the current status is NoOpTransition.
func (s *Service) UpdateStatus(ctx context.Context, id int64, userID, status string) (models.Todo, error) {
	st, ok := models.ParseTodoStatus(status)
	if !ok {
		return models.Todo{}, apperr.Newf(apperr.KindValidation, "invalid status %q", status)
	}
	t, err := s.owned(ctx, id, userID)
	if err != nil {
		return models.Todo{}, err
	}
	if t.Status == st {
		return models.Todo{}, apperr.Newf(apperr.KindNoOpTransition, "todo is already %s", st)
	}
	t.Status = st
	if err := s.db.WithContext(ctx).Model(&t).Update("status", st).Error; err != nil {
		return models.Todo{}, apperr.Internal(err)
	}
	return t, nil
}

// Delete removes a todo owned by userID, or any todo when canDeleteAny is set
// (the caller holds DeleteAnyCapability). A todo the caller may not delete is
// reported as NotFound so its existence is not revealed.
func (s *Service) Delete(ctx context.Context, id int64, userID string, canDeleteAny bool) error {
	q := s.db.WithContext(ctx).Where("id = ?", id)
	if !canDeleteAny {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Delete(&models.Todo{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return errTodoNotFound
	}
	s.lg.Infow("todo deleted", "todo_id", id, "by", userID, "override", canDeleteAny)
	return nil
}

func (s *Service) owned(ctx context.Context, id int64, userID string) (models.Todo, error) {
	var t models.Todo
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Todo{}, errTodoNotFound
	}
	if err != nil {
		return models.Todo{}, apperr.Internal(err)
	}
	return t, nil
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.New(apperr.KindValidation, "title is required")
	}
	return title, nil
}
