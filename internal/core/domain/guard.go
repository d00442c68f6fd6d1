package domain

// GuardRoleAssignment resolves the role an account actually receives.
//
// The first account in the system always becomes admin. Anyone other than an
// admin asking for admin (including anonymous self-registration) is silently
// downgraded to manager. The same policy applies to every creation and edit path.
func GuardRoleAssignment(requested Role, actor *Account, isFirstAccount bool) Role {
	if isFirstAccount {
		return RoleAdmin
	}
	if requested == "" {
		return DefaultRole
	}
	if requested.IsAdmin() && (actor == nil || !actor.Role.IsAdmin()) {
		return RoleManager
	}
	return requested
}

// AssertNotSelf blocks administrative mutations that target the acting account.
func AssertNotSelf(actingID, targetID string) error {
	if actingID == targetID {
		return ErrSelfTarget
	}
	return nil
}
