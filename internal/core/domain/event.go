package domain

import "time"

// AccountEventKind names an entry in the account audit trail.
type AccountEventKind string

const (
	EventAccountCreated     AccountEventKind = "account_created"
	EventLogin              AccountEventKind = "login"
	EventLogout             AccountEventKind = "logout"
	EventPasswordChanged    AccountEventKind = "password_changed"
	EventProfileUpdated     AccountEventKind = "profile_updated"
	EventAccountUpdated     AccountEventKind = "account_updated"
	EventRoleChanged        AccountEventKind = "role_changed"
	EventPermissionsReset   AccountEventKind = "permissions_reset"
	EventAccountDeactivated AccountEventKind = "account_deactivated"
	EventAccountReactivated AccountEventKind = "account_reactivated"
)

// AccountEvent is one audit record. ActorID is empty for anonymous actions.
type AccountEvent struct {
	AccountID  string
	ActorID    string
	Kind       AccountEventKind
	Detail     string
	OccurredAt time.Time
}
