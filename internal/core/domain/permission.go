package domain

// Module is a functional area subject to access control.
type Module string

const (
	ModuleDashboard  Module = "dashboard"
	ModuleClients    Module = "clients"
	ModuleActivities Module = "activities"
	ModuleReports    Module = "reports"
	ModuleAccounting Module = "accounting"
	ModuleCases      Module = "cases"
	ModuleTeam       Module = "team"
)

// Action is a capability within a module.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// Modules lists every access-controlled module in display order.
var Modules = []Module{
	ModuleDashboard,
	ModuleClients,
	ModuleActivities,
	ModuleReports,
	ModuleAccounting,
	ModuleCases,
	ModuleTeam,
}

// Capabilities holds the CRUD flags of a regular module.
type Capabilities struct {
	View   bool `json:"view"   bson:"view"`
	Create bool `json:"create" bson:"create"`
	Edit   bool `json:"edit"   bson:"edit"`
	Delete bool `json:"delete" bson:"delete"`
}

// ReportCapabilities holds the flags of the reports module.
type ReportCapabilities struct {
	View   bool `json:"view"   bson:"view"`
	Export bool `json:"export" bson:"export"`
}

// PermissionSet is the per-module capability record attached to an Account.
type PermissionSet struct {
	Dashboard  bool               `json:"dashboard"  bson:"dashboard"`
	Clients    Capabilities       `json:"clients"    bson:"clients"`
	Activities Capabilities       `json:"activities" bson:"activities"`
	Reports    ReportCapabilities `json:"reports"    bson:"reports"`
	Accounting Capabilities       `json:"accounting" bson:"accounting"`
	Cases      Capabilities       `json:"cases"      bson:"cases"`
	Team       Capabilities       `json:"team"       bson:"team"`
}

var (
	fullAccess   = Capabilities{View: true, Create: true, Edit: true, Delete: true}
	noDelete     = Capabilities{View: true, Create: true, Edit: true}
	viewOnly     = Capabilities{View: true}
	noAccess     = Capabilities{}
	reportsFull  = ReportCapabilities{View: true, Export: true}
	reportsNone  = ReportCapabilities{}
	matrixByRole = map[Role]PermissionSet{
		RoleAdmin: {
			Dashboard:  true,
			Clients:    fullAccess,
			Activities: fullAccess,
			Reports:    reportsFull,
			Accounting: fullAccess,
			Cases:      fullAccess,
			Team:       fullAccess,
		},
		RoleManager: {
			Dashboard:  true,
			Clients:    noDelete,
			Activities: noDelete,
			Reports:    reportsFull,
			Accounting: noDelete,
			Cases:      noDelete,
			Team:       noDelete,
		},
		RoleEmployee: {
			Dashboard:  true,
			Clients:    noAccess,
			Activities: fullAccess,
			Reports:    reportsNone,
			Accounting: noAccess,
			Cases:      viewOnly,
			Team:       viewOnly,
		},
		RoleViewer: {
			Dashboard:  true,
			Clients:    viewOnly,
			Activities: viewOnly,
			Reports:    reportsNone,
			Accounting: noAccess,
			Cases:      viewOnly,
			Team:       noAccess,
		},
	}
)

// PermissionsFor returns the canonical permission set of r. Unknown roles get nothing.
func PermissionsFor(r Role) PermissionSet {
	return matrixByRole[r]
}

// ParseModule validates s against the module enumeration.
func ParseModule(s string) (Module, bool) {
	for _, m := range Modules {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Allows reports whether the set grants action on module. Actions a module
// does not define are never granted.
func (p PermissionSet) Allows(module Module, action Action) bool {
	switch module {
	case ModuleDashboard:
		return action == ActionView && p.Dashboard
	case ModuleReports:
		switch action {
		case ActionView:
			return p.Reports.View
		case ActionExport:
			return p.Reports.Export
		}
		return false
	}

	caps, ok := p.capabilities(module)
	if !ok {
		return false
	}
	switch action {
	case ActionView:
		return caps.View
	case ActionCreate:
		return caps.Create
	case ActionEdit:
		return caps.Edit
	case ActionDelete:
		return caps.Delete
	default:
		return false
	}
}

func (p PermissionSet) capabilities(module Module) (Capabilities, bool) {
	switch module {
	case ModuleClients:
		return p.Clients, true
	case ModuleActivities:
		return p.Activities, true
	case ModuleAccounting:
		return p.Accounting, true
	case ModuleCases:
		return p.Cases, true
	case ModuleTeam:
		return p.Team, true
	default:
		return Capabilities{}, false
	}
}

// Clamp returns p restricted to what the canonical matrix of r grants.
func (p PermissionSet) Clamp(r Role) PermissionSet {
	c := PermissionsFor(r)
	return PermissionSet{
		Dashboard:  p.Dashboard && c.Dashboard,
		Clients:    p.Clients.and(c.Clients),
		Activities: p.Activities.and(c.Activities),
		Reports: ReportCapabilities{
			View:   p.Reports.View && c.Reports.View,
			Export: p.Reports.Export && c.Reports.Export,
		},
		Accounting: p.Accounting.and(c.Accounting),
		Cases:      p.Cases.and(c.Cases),
		Team:       p.Team.and(c.Team),
	}
}

func (c Capabilities) and(o Capabilities) Capabilities {
	return Capabilities{
		View:   c.View && o.View,
		Create: c.Create && o.Create,
		Edit:   c.Edit && o.Edit,
		Delete: c.Delete && o.Delete,
	}
}

// Authorize decides whether account may perform action on module.
//
// Admins are allowed unconditionally; the stored set is not consulted for
// them, so a stale or corrupted document cannot lock an admin out.
func Authorize(account *Account, module Module, action Action) error {
	if account == nil {
		return &AuthenticationError{Reason: ReasonMissingAccount}
	}
	if account.Role.IsAdmin() {
		return nil
	}
	if !account.Permissions.Allows(module, action) {
		return &AuthorizationError{Module: module, Action: action}
	}
	return nil
}
