package scrum

import (
	"context"
	"fmt"
	"slices"

	"github.com/adanyl0v/go-scrum/internal/services"
)

// RoleDirectory answers role questions about users.
type RoleDirectory interface {
	AdminRoleID() string
	AdminIDs(ctx context.Context) ([]string, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Roles resolves the admin role id once and reuses it for every lookup.
type Roles struct {
	repo        services.UserRoleRepository
	adminRoleID string
}

func NewRoles(ctx context.Context, repo services.UserRoleRepository, adminRoleName string) (*Roles, error) {
	id, err := repo.GetRoleIDByName(ctx, adminRoleName)
	if err != nil {
		return nil, fmt.Errorf("resolve role %q: %w", adminRoleName, err)
	}
	return &Roles{repo: repo, adminRoleID: id}, nil
}

func (r *Roles) AdminRoleID() string {
	return r.adminRoleID
}

func (r *Roles) AdminIDs(ctx context.Context) ([]string, error) {
	return r.repo.GetUserIDsInRole(ctx, r.adminRoleID)
}

func (r *Roles) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return r.repo.IsUserInRole(ctx, userID, r.adminRoleID)
}

var _ RoleDirectory = (*Roles)(nil)

func isAdminID(adminIDs []string, userID string) bool {
	return slices.Contains(adminIDs, userID)
}
