package tooladapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/careloop/health-coach/agent/contract"
)

const (
	ToolRecordMedication = "record_medication"
	ToolSwitchTheme      = "switch_theme"

	paramMedicationName = "medication_name"
	paramTheme          = "theme"
)

// Kind is the closed set of tools this adapter understands. Routing to any
// other tool belongs to the conversational framework, not here.
type Kind string

const (
	KindRecordMedication Kind = Kind(ToolRecordMedication)
	KindSwitchTheme      Kind = Kind(ToolSwitchTheme)
)

// ParseKind maps a wire tool name onto a Kind.
func ParseKind(tool string) (Kind, error) {
	switch strings.TrimSpace(tool) {
	case ToolRecordMedication:
		return KindRecordMedication, nil
	case ToolSwitchTheme:
		return KindSwitchTheme, nil
	default:
		return "", fmt.Errorf("%w: unknown tool=%q", contractx.ErrToolProtocol, tool)
	}
}

// Adapter bridges structured tool calls from the conversational layer into
// store writes. It keeps a per-session set of already-processed medication
// names so the model re-confirming a medication never reaches the store
// twice within one thread.
type Adapter struct {
	store contractx.MedicationStore
	theme *ThemeState

	mu        sync.Mutex
	processed map[string]map[string]struct{}
}

func New(store contractx.MedicationStore, theme *ThemeState) *Adapter {
	if theme == nil {
		theme = NewThemeState()
	}
	return &Adapter{
		store:     store,
		theme:     theme,
		processed: make(map[string]map[string]struct{}, 4),
	}
}

// Theme exposes the shared theme state for session-reset wiring.
func (a *Adapter) Theme() *ThemeState {
	return a.theme
}

// Execute handles one tool invocation for the given session. It always
// returns an outcome; protocol failures surface as Success=false so a bad
// tool call never aborts the conversation.
func (a *Adapter) Execute(ctx context.Context, sessionID string, inv contractx.ToolInvocation) contractx.ToolOutcome {
	if strings.TrimSpace(sessionID) == "" {
		return failure(inv.Tool, "session id is empty")
	}

	kind, err := ParseKind(inv.Tool)
	if err != nil {
		log.Warn().Str("tool", inv.Tool).Msg("rejected unrecognized tool invocation")
		return failure(inv.Tool, "unrecognized tool")
	}

	switch kind {
	case KindRecordMedication:
		return a.recordMedication(sessionID, inv.Params)
	case KindSwitchTheme:
		return a.switchTheme(inv.Params)
	default:
		// ParseKind is total over Kind; this is unreachable.
		return failure(inv.Tool, "unrecognized tool")
	}
}

func (a *Adapter) recordMedication(sessionID string, params map[string]any) contractx.ToolOutcome {
	raw, ok := params[paramMedicationName]
	if !ok {
		return failure(ToolRecordMedication, "medication_name is required")
	}
	name, ok := raw.(string)
	if !ok {
		return failure(ToolRecordMedication, "medication_name must be a string")
	}

	normalized := contractx.NormalizeMedicationName(name)
	if normalized == "" {
		return failure(ToolRecordMedication, "medication_name is empty")
	}

	a.mu.Lock()
	session, ok := a.processed[sessionID]
	if !ok {
		session = make(map[string]struct{}, 4)
		a.processed[sessionID] = session
	}
	if _, seen := session[normalized]; seen {
		a.mu.Unlock()
		// Already submitted this thread; report synthetic success without
		// re-invoking the store.
		return contractx.ToolOutcome{
			Tool:           ToolRecordMedication,
			Success:        true,
			MedicationName: normalized,
		}
	}
	a.mu.Unlock()

	record, err := a.store.Upsert(normalized)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to save medication")
		return failure(ToolRecordMedication, "failed to save medication")
	}

	a.mu.Lock()
	if session, ok := a.processed[sessionID]; ok {
		session[normalized] = struct{}{}
	} else {
		a.processed[sessionID] = map[string]struct{}{normalized: {}}
	}
	a.mu.Unlock()

	log.Info().Str("session_id", sessionID).Str("medication", record.Name).Msg("medication saved")
	return contractx.ToolOutcome{
		Tool:           ToolRecordMedication,
		Success:        true,
		MedicationName: record.Name,
	}
}

func (a *Adapter) switchTheme(params map[string]any) contractx.ToolOutcome {
	raw, ok := params[paramTheme]
	if !ok {
		return failure(ToolSwitchTheme, "theme is required")
	}
	requested, ok := raw.(string)
	if !ok {
		return failure(ToolSwitchTheme, "theme must be a string")
	}

	theme, err := NormalizeColorScheme(requested)
	if err != nil {
		return failure(ToolSwitchTheme, err.Error())
	}

	a.theme.Set(theme)
	return contractx.ToolOutcome{
		Tool:    ToolSwitchTheme,
		Success: true,
		Theme:   theme,
	}
}

// ResetSession drops the processed-name set for a session. A new thread
// starts with an empty set; the store's idempotent insert still applies.
func (a *Adapter) ResetSession(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.processed, sessionID)
}

func failure(tool, reason string) contractx.ToolOutcome {
	return contractx.ToolOutcome{
		Tool:    tool,
		Success: false,
		Error:   reason,
	}
}

var _ contractx.ToolGateway = (*Adapter)(nil)
