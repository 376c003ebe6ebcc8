package access

import (
	"errors"
	"testing"

	"money-layer/internal/apperr"
	"money-layer/internal/config"
	"money-layer/internal/models"
)

var (
	admin = &models.User{ID: 1, Role: models.RoleAdmin}
	user  = &models.User{ID: 2, Role: models.RoleUser}
	staff = &models.User{ID: 3, Role: models.RoleFuncionario}
)

func TestNewDeletePolicy(t *testing.T) {
	cases := map[string]DeletePolicy{
		"":                       OwnerOnly{},
		config.DeletePolicyOwner: OwnerOnly{},
		config.DeletePolicyAdmin: AdminOnly{},
	}
	for name, want := range cases {
		got, err := NewDeletePolicy(name)
		if err != nil {
			t.Fatalf("NewDeletePolicy(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("NewDeletePolicy(%q) = %T, want %T", name, got, want)
		}
	}
	if _, err := NewDeletePolicy("everyone"); err == nil {
		t.Error("unknown policy accepted")
	}
}

func TestDeleteScope(t *testing.T) {
	owner := NewController(OwnerOnly{})
	for _, actor := range []*models.User{admin, user, staff} {
		scope, err := owner.DeleteScope(actor)
		if err != nil || scope != ScopeOwn {
			t.Errorf("owner policy, role %s: scope=%v err=%v, want own", actor.Role, scope, err)
		}
	}

	legacy := NewController(AdminOnly{})
	scope, err := legacy.DeleteScope(admin)
	if err != nil || scope != ScopeAny {
		t.Errorf("admin policy, admin: scope=%v err=%v, want any", scope, err)
	}
	for _, actor := range []*models.User{user, staff} {
		if _, err := legacy.DeleteScope(actor); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("admin policy, role %s: err=%v, want ErrForbidden", actor.Role, err)
		}
	}

	if _, err := owner.DeleteScope(nil); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("nil actor: err=%v, want ErrUnauthenticated", err)
	}
}

func TestProfileAndStaffRules(t *testing.T) {
	c := NewController(nil)

	if err := c.CanUpdateProfile(user, user.ID); err != nil {
		t.Errorf("own profile update refused: %v", err)
	}
	if err := c.CanUpdateProfile(admin, user.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign profile update: err=%v, want ErrForbidden", err)
	}

	if err := c.CanCreateStaff(admin); err != nil {
		t.Errorf("admin staff creation refused: %v", err)
	}
	for _, actor := range []*models.User{user, staff} {
		if err := c.CanCreateStaff(actor); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("role %s staff creation: err=%v, want ErrForbidden", actor.Role, err)
		}
	}
}
