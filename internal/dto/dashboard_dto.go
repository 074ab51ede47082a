package dto

// DashboardResponse aggregates registry statistics for the role dashboards.
type DashboardResponse struct {
	Role                string           `json:"role"`
	PatrimoinesByType   map[string]int64 `json:"patrimoines_by_type"`
	PatrimoinesByStatut map[string]int64 `json:"patrimoines_by_statut"`
	InspectionsByEtat   map[string]int64 `json:"inspections_by_etat"`
	// PendingRequests is populated only for admin and superadmin viewers.
	PendingRequests *int64 `json:"pending_requests,omitempty"`
}
