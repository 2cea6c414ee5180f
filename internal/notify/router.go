// Package notify decides who gets told about an alert.
//
// The router is a pure policy function over the user cache: it selects
// recipients, and a separate builder shapes the notification record. The
// actual store write happens in the coordinator so this package stays
// testable without any I/O.
package notify

import (
	"fmt"

	"warehousemon/internal/store"
)

// PreferenceFor maps an alert severity onto the notification preference key
// that gates it. CRITICAL is gated by critical_alerts; HIGH and WARNING
// share warning_alerts; everything else falls through to email_alerts.
func PreferenceFor(severity store.Severity) string {
	switch severity {
	case store.SeverityCritical:
		return store.PrefCriticalAlert
	case store.SeverityHigh, store.SeverityWarning:
		return store.PrefWarningAlert
	default:
		return store.PrefEmailAlerts
	}
}

// wants reports whether a single user should be notified about the alert,
// ignoring warehouse scoping (the caller decides scope).
func wants(u *store.User, alert store.Alert) bool {
	if u == nil || !u.Active {
		return false
	}
	return u.WantsNotification(PreferenceFor(alert.Severity))
}

// Route selects the users to notify for an alert on the given warehouse.
//
// The owner is evaluated once; every other user is eligible when they are
// active, may access the warehouse, and their preferences permit the
// alert's severity. A user who is both owner and in the general set is
// returned only once.
func Route(alert store.Alert, ownerID, warehouseID string, users map[string]*store.User) []*store.User {
	var recipients []*store.User

	if owner, ok := users[ownerID]; ok && wants(owner, alert) {
		recipients = append(recipients, owner)
	}

	for uid, u := range users {
		if uid == ownerID {
			continue
		}
		if u.Active && u.CanAccessWarehouse(warehouseID) && wants(u, alert) {
			recipients = append(recipients, u)
		}
	}

	return recipients
}

// Build shapes the notification record written for one recipient.
func Build(u *store.User, warehouseName string, alert store.Alert) store.Notification {
	return store.Notification{
		UserID:    u.UID,
		Title:     fmt.Sprintf("Warehouse Alert: %s", warehouseName),
		Message:   alert.Message,
		Severity:  alert.Severity,
		Timestamp: alert.Timestamp,
		Read:      false,
		Type:      alert.Type,
	}
}
