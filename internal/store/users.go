package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

// ErrDuplicateEmail 邮箱已注册
var ErrDuplicateEmail = errors.New("email already registered")

const userColumns = `id, email, password_hash, role, warehouse_name, is_active, last_login, created_at`

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, NULL, ?)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role), nullIfEmpty(u.WarehouseName), u.IsActive, formatTime(u.CreatedAt))
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpsertUser 按邮箱创建或更新用户（种子数据）
func (s *Store) UpsertUser(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	existing, err := s.GetUserByEmail(ctx, u.Email)
	if errors.Is(err, ErrNotFound) {
		return s.CreateUser(ctx, u)
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, role = ?, warehouse_name = ?, is_active = ? WHERE id = ?
	`, u.PasswordHash, string(u.Role), nullIfEmpty(u.WarehouseName), u.IsActive, existing.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	u.ID = existing.ID
	u.CreatedAt = existing.CreatedAt
	return nil
}

// GetUserByEmail 按邮箱查询
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
}

// GetUserByID 按 ID 查询
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// TouchLastLogin 记录最近登录时间
func (s *Store) TouchLastLogin(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		u                    model.User
		role, created        string
		warehouse, lastLogin sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &warehouse,
		&u.IsActive, &lastLogin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Role = model.Role(role)
	u.WarehouseName = warehouse.String
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.LastLogin, err = nullTime(lastLogin); err != nil {
		return nil, err
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
