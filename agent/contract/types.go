package contract

import (
	"strings"
	"time"
)

// RecordStatus tracks the client-visible lifecycle of a medication record.
// Server-created records are always "saved"; "pending" and "discarded" exist
// for confirmation flows the client may layer on top.
type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusSaved     RecordStatus = "saved"
	StatusDiscarded RecordStatus = "discarded"
)

// MedicationRecord is one medication entry identified by normalized name.
// CreatedAt is set once at creation and never refreshed by duplicate writes.
type MedicationRecord struct {
	Name      string       `json:"name"`
	Status    RecordStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ToolInvocation is a structured function call emitted by the conversational
// layer: a tool name plus a loose argument bag.
type ToolInvocation struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
}

// ToolOutcome is the boolean result reported back into the transcript.
// A failed invocation carries a short error string instead of aborting the
// conversation.
type ToolOutcome struct {
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// MedicationName is the normalized name for record_medication outcomes.
	MedicationName string `json:"medication_name,omitempty"`
	// Theme is the normalized color scheme for switch_theme outcomes.
	Theme string `json:"theme,omitempty"`
}

// NormalizeMedicationName trims the name and collapses internal whitespace
// runs to single spaces. Comparison stays case-sensitive.
func NormalizeMedicationName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
