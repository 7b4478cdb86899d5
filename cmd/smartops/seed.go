package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/auth"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

// seedFile 用户种子文件
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
	Warehouse string `yaml:"warehouse"`
	Active    *bool  `yaml:"active"`
}

// UserUpserter 种子写入所需的存储能力
type UserUpserter interface {
	UpsertUser(ctx context.Context, u *model.User) error
}

func newSeedUsersCmd(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-users",
		Short: "Create or update users from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(root)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			return seedUsers(cmd.Context(), st, data, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&file, "file", "users.yaml", "YAML file with a top-level users list")
	return cmd
}

// parseSeedUsers 解析并校验种子文件
func parseSeedUsers(data []byte) ([]seedUser, error) {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(sf.Users) == 0 {
		return nil, fmt.Errorf("seed file has no users")
	}
	for i, u := range sf.Users {
		role := model.Role(u.Role)
		if u.Email == "" {
			return nil, fmt.Errorf("users[%d]: email is required", i)
		}
		if !role.Valid() {
			return nil, fmt.Errorf("users[%d] %s: role must be admin or manager", i, u.Email)
		}
		if role == model.RoleManager && u.Warehouse == "" {
			return nil, fmt.Errorf("users[%d] %s: warehouse is required for managers", i, u.Email)
		}
	}
	return sf.Users, nil
}

func seedUsers(ctx context.Context, st UserUpserter, data []byte, out io.Writer) error {
	users, err := parseSeedUsers(data)
	if err != nil {
		return err
	}
	for _, su := range users {
		hash, err := auth.HashPassword(su.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", su.Email, err)
		}
		u := &model.User{
			Email:         su.Email,
			PasswordHash:  hash,
			Role:          model.Role(su.Role),
			WarehouseName: su.Warehouse,
			IsActive:      su.Active == nil || *su.Active,
		}
		if err := st.UpsertUser(ctx, u); err != nil {
			return fmt.Errorf("%s: %w", su.Email, err)
		}
		fmt.Fprintf(out, "seeded %s (%s)\n", u.Email, u.Role)
	}
	return nil
}
