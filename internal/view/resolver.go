// Package view decides which top-level view the SPA should render for a
// resolved session snapshot.
package view

import (
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/profile"
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/session"
)

// Dashboard is the view the client should render.
type Dashboard string

const (
	// DashboardLoading is shown while the first session change is still
	// being processed.
	DashboardLoading Dashboard = "loading"
	// DashboardAuth is the login/registration view for signed-out users.
	DashboardAuth Dashboard = "auth"
	DashboardClient Dashboard = "client"
	DashboardDriver Dashboard = "driver"
)

// Resolve maps a snapshot to exactly one dashboard. Unknown roles fall back
// to the client dashboard by policy.
func Resolve(snap session.Snapshot) Dashboard {
	if snap.Initializing {
		return DashboardLoading
	}
	if snap.Profile == nil {
		return DashboardAuth
	}
	if snap.Profile.Role == profile.RoleDriver {
		return DashboardDriver
	}
	return DashboardClient
}
