package domain

import (
	"strings"
	"time"
)

// Role — роль пользователя; всё, кроме CLIENT, считается персоналом.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleAdmin    Role = "ADMIN"
	RoleKitchen  Role = "KITCHEN"
	RoleCourier  Role = "COURIER"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole нормализует строку роли.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", ErrRoleInvalid
	}
	return role, nil
}

// Valid проверяет, что роль известна.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAdmin, RoleKitchen, RoleCourier, RoleEmployee:
		return true
	default:
		return false
	}
}

// StaffRoles перечисляет роли персонала.
func StaffRoles() []Role {
	return []Role{RoleAdmin, RoleKitchen, RoleCourier, RoleEmployee}
}

// User — учётная запись клиента или сотрудника.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	AvatarURL    string
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Deleted сообщает, что пользователь мягко удалён.
func (u *User) Deleted() bool {
	return u.DeletedAt != nil
}

// Actor — аутентифицированный вызывающий, от имени которого выполняется операция.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin сообщает, что вызывающий является администратором.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsStaff сообщает, что вызывающий относится к персоналу.
func (a Actor) IsStaff() bool {
	return a.Role.Valid() && a.Role != RoleClient
}

// NormalizeEmail приводит email к каноничному виду для поиска и уникальности.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
