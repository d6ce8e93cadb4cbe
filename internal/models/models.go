package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Join tables named by the many2many tags below.
const (
	TableUserRoles       = "user_roles"
	TableRolePermissions = "role_permissions"
)

type Role struct {
	ID          int          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"uniqueIndex;not null" json:"name"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Permission struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           string    `gorm:"size:36;primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Roles        []Role    `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Todos        []Todo    `gorm:"constraint:OnDelete:CASCADE" json:"todos,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns the opaque id in Go so postgres and sqlite behave the same.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Todo struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	Status    TodoStatus `gorm:"size:16;not null" json:"status"`
	Completed bool       `gorm:"not null" json:"completed"`
	UserID    string     `gorm:"size:36;index;not null" json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// All lists every table owned by the service, in migration order.
func All() []any {
	return []any{&Permission{}, &Role{}, &User{}, &Todo{}}
}
