package store

import "encoding/json"

// Role is the privilege tier of a user, ordered ADMIN > OPERATOR > VIEWER.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Permission names a single dashboard capability.
type Permission string

const (
	PermAddWarehouse        Permission = "add_warehouse"
	PermEditWarehouse       Permission = "edit_warehouse"
	PermDeleteWarehouse     Permission = "delete_warehouse"
	PermManageUsers         Permission = "manage_users"
	PermViewReports         Permission = "view_reports"
	PermAcknowledgeAlerts   Permission = "acknowledge_alerts"
	PermExportData          Permission = "export_data"
	PermConfigureThresholds Permission = "configure_thresholds"
	PermViewAnalytics       Permission = "view_analytics"
)

// rolePermissions is the data-driven policy table. Keeping the policy in
// data rather than per-role methods lets tests assert the whole matrix.
var rolePermissions = map[Role]map[Permission]bool{
	RoleAdmin: {
		PermAddWarehouse:        true,
		PermEditWarehouse:       true,
		PermDeleteWarehouse:     true,
		PermManageUsers:         true,
		PermViewReports:         true,
		PermAcknowledgeAlerts:   true,
		PermExportData:          true,
		PermConfigureThresholds: true,
		PermViewAnalytics:       true,
	},
	RoleOperator: {
		PermAddWarehouse:      true,
		PermEditWarehouse:     true,
		PermViewReports:       true,
		PermAcknowledgeAlerts: true,
		PermViewAnalytics:     true,
	},
	RoleViewer: {
		PermViewReports: true,
	},
}

// ParseRole maps a stored role string onto a Role. Unknown or empty values
// fall back to the least-privileged role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleOperator, RoleViewer:
		return Role(s)
	default:
		return RoleViewer
	}
}

// Priority returns the privilege ordering of the role (higher outranks lower).
func (r Role) Priority() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleOperator:
		return 2
	default:
		return 1
	}
}

// Can reports whether the role grants the given permission.
func (r Role) Can(p Permission) bool {
	return rolePermissions[r][p]
}

// Notification preference keys. Missing keys default to true at lookup time;
// DefaultPreferences describes the creation-time defaults, where report
// digests start disabled.
const (
	PrefEmailAlerts   = "email_alerts"
	PrefCriticalAlert = "critical_alerts"
	PrefWarningAlert  = "warning_alerts"
	PrefDailyReports  = "daily_reports"
	PrefWeeklySummary = "weekly_summary"
)

// DefaultPreferences returns the notification preference map applied when a
// user is created without explicit preferences.
func DefaultPreferences() map[string]bool {
	return map[string]bool{
		PrefEmailAlerts:   true,
		PrefCriticalAlert: true,
		PrefWarningAlert:  true,
		PrefDailyReports:  false,
		PrefWeeklySummary: false,
	}
}

// User is one dashboard user. The lifecycle is owned externally; the core
// holds a read-mostly cache refreshed on snapshot change.
type User struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Active    bool   `json:"isActive"`
	CreatedAt int64  `json:"createdAt"`
	LastLogin int64  `json:"lastLogin"`

	// Preferences maps notification preference keys to opt-in flags.
	// A nil map or a missing key reads as opted in.
	Preferences map[string]bool `json:"notificationPreferences"`

	// AssignedWarehouses restricts which warehouses the user sees. Empty
	// or nil means unrestricted; admins are never restricted.
	AssignedWarehouses []string `json:"assignedWarehouses"`
}

// UnmarshalJSON decodes a user record, treating a missing isActive field as
// active. Dashboard documents only carry the flag once a user has been
// explicitly deactivated.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	aux := struct {
		Active *bool `json:"isActive"`
		*plain
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.Active = aux.Active == nil || *aux.Active
	return nil
}

// WantsNotification reports whether the user has the given preference
// enabled. Missing keys default to enabled, matching the dashboard's
// opt-out semantics.
func (u *User) WantsNotification(pref string) bool {
	if u.Preferences == nil {
		return true
	}
	if v, ok := u.Preferences[pref]; ok {
		return v
	}
	return true
}

// CanAccessWarehouse reports whether the user may see the given warehouse.
// Admins always can; an empty assignment list means unrestricted access.
func (u *User) CanAccessWarehouse(warehouseID string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	if len(u.AssignedWarehouses) == 0 {
		return true
	}
	for _, id := range u.AssignedWarehouses {
		if id == warehouseID {
			return true
		}
	}
	return false
}
