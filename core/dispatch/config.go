package dispatch

// Config defines dispatch-related settings.
type Config struct {
	// RejectInfeasible makes the HTTP boundary answer 422 instead of returning
	// a partial plan when the load cannot be met.
	RejectInfeasible bool `json:"reject_infeasible"`
}
