package contract

import "context"

// MedicationStore is the authoritative, process-lifetime record registry.
type MedicationStore interface {
	Upsert(name string) (MedicationRecord, error)
	List() []MedicationRecord
	Remove(name string) bool
	Clear() int
}

// MedicationAPI is the client-side view of the REST surface.
type MedicationAPI interface {
	ListMedications(ctx context.Context) ([]MedicationRecord, error)
	DeleteMedication(ctx context.Context, name string) error
	ClearMedications(ctx context.Context) error
}

// ToolGateway executes a single tool invocation on behalf of a session and
// reports the outcome back to the conversational layer.
type ToolGateway interface {
	Execute(ctx context.Context, sessionID string, inv ToolInvocation) ToolOutcome
}
