// Package access decides whether an authenticated user may perform an operation.
package access

import (
	"fmt"

	"money-layer/internal/apperr"
	"money-layer/internal/config"
	"money-layer/internal/models"
)

// DeleteScope says which rows an authorized delete may touch.
type DeleteScope int

const (
	// ScopeOwn limits the delete to rows owned by the actor.
	ScopeOwn DeleteScope = iota
	// ScopeAny lets the actor delete any row.
	ScopeAny
)

// DeletePolicy authorizes transaction deletion.
type DeletePolicy interface {
	Scope(actor *models.User) (DeleteScope, error)
}

// OwnerOnly lets every user delete their own rows and nothing else. Rows that
// are missing or belong to someone else are reported as not found.
type OwnerOnly struct{}

func (OwnerOnly) Scope(actor *models.User) (DeleteScope, error) {
	if actor == nil {
		return ScopeOwn, apperr.Unauthenticated("no authenticated user")
	}
	return ScopeOwn, nil
}

// AdminOnly reserves deletion to admins, who may delete any row.
type AdminOnly struct{}

func (AdminOnly) Scope(actor *models.User) (DeleteScope, error) {
	if actor == nil {
		return ScopeOwn, apperr.Unauthenticated("no authenticated user")
	}
	if !actor.IsAdmin() {
		return ScopeOwn, apperr.Forbidden("only admins can delete transactions")
	}
	return ScopeAny, nil
}

// NewDeletePolicy maps a configured policy name to its implementation.
func NewDeletePolicy(name string) (DeletePolicy, error) {
	switch name {
	case "", config.DeletePolicyOwner:
		return OwnerOnly{}, nil
	case config.DeletePolicyAdmin:
		return AdminOnly{}, nil
	default:
		return nil, fmt.Errorf("unknown delete policy %q", name)
	}
}

// Controller gathers the authorization rules of the API.
type Controller struct {
	delete DeletePolicy
}

func NewController(p DeletePolicy) *Controller {
	if p == nil {
		p = OwnerOnly{}
	}
	return &Controller{delete: p}
}

// Authenticated fails when there is no resolved user.
func (c *Controller) Authenticated(actor *models.User) error {
	if actor == nil || actor.ID == 0 {
		return apperr.Unauthenticated("no authenticated user")
	}
	return nil
}

// DeleteScope applies the configured delete policy.
func (c *Controller) DeleteScope(actor *models.User) (DeleteScope, error) {
	if err := c.Authenticated(actor); err != nil {
		return ScopeOwn, err
	}
	return c.delete.Scope(actor)
}

// CanUpdateProfile allows users to edit only their own profile.
func (c *Controller) CanUpdateProfile(actor *models.User, targetID uint) error {
	if err := c.Authenticated(actor); err != nil {
		return err
	}
	if actor.ID != targetID {
		return apperr.Forbidden("profiles can only be edited by their owner")
	}
	return nil
}

// CanCreateStaff allows only admins to create accounts for others.
func (c *Controller) CanCreateStaff(actor *models.User) error {
	if err := c.Authenticated(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins can create accounts")
	}
	return nil
}
