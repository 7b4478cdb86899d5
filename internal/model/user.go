package model

import "time"

// Role 用户角色
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// Valid 是否为合法角色
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager
}

// User 系统用户
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	WarehouseName string     `json:"warehouseName,omitempty"` // manager 必填
	IsActive      bool       `json:"isActive"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
