package domain

// Metrics is the aggregate operational snapshot kept by the provider
// registry. Counters only ever grow; a monitoring port layers rates on top.
type Metrics struct {
	ClientsRegistered int64 `json:"clients_registered"`
	ScopesRegistered  int64 `json:"scopes_registered"`
	CodesIssued       int64 `json:"codes_issued"`
	DeviceCodesIssued int64 `json:"device_codes_issued"`
	TokensIssued      int64 `json:"tokens_issued"`
	TokensRevoked     int64 `json:"tokens_revoked"`
	Introspections    int64 `json:"introspections"`
	SessionsCreated   int64 `json:"sessions_created"`
	CleanupRuns       int64 `json:"cleanup_runs"`
}
