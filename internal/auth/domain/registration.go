package domain

// RegistrationPhase tracks a cross-service registration as it moves through
// the credential insert, the remote profile create and, on failure, the
// compensating delete. There is no coordinator between the two stores, so the
// phase is the only record of how far a registration got.
type RegistrationPhase string

const (
	// PhaseLocalCommitted: the credential row is durably committed.
	PhaseLocalCommitted RegistrationPhase = "LOCAL_COMMITTED"
	// PhaseRemoteAttempted: the profile create call has been issued.
	PhaseRemoteAttempted RegistrationPhase = "REMOTE_ATTEMPTED"
	// PhaseRemoteSucceeded: both stores hold a row for the user.
	PhaseRemoteSucceeded RegistrationPhase = "REMOTE_SUCCEEDED"
	// PhaseRolledBack: the remote create failed and the local row was removed.
	PhaseRolledBack RegistrationPhase = "ROLLED_BACK"
	// PhaseRollbackFailed: the remote create failed AND the compensating
	// delete failed. An orphaned credential row exists until reconciled.
	PhaseRollbackFailed RegistrationPhase = "ROLLBACK_FAILED"
)
