package services

import (
	"context"

	"overtimepay/apperror"
	"overtimepay/models"
)

// authorizeView checks that actor may read userID's entries and reports:
// themselves, an administrator, or the manager of the user's team.
func authorizeView(ctx context.Context, store models.Store, actor *models.User, userID uint) error {
	if actor.ID == userID || actor.IsAdmin() {
		return nil
	}
	if !actor.IsManager() {
		return apperror.Forbidden("you can only view your own entries")
	}

	target, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if target.TeamID == nil {
		return apperror.Forbidden("user is not a member of your teams")
	}
	team, err := store.Teams().GetByID(ctx, *target.TeamID)
	if err != nil {
		return err
	}
	if !team.IsManagedBy(actor.ID) {
		return apperror.Forbidden("user is not a member of your teams")
	}
	return nil
}
