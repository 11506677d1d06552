package tooladapter

import (
	"context"
	"testing"

	contractx "github.com/careloop/health-coach/agent/contract"
	medicationx "github.com/careloop/health-coach/agent/medication"
)

func recordInvocation(name string) contractx.ToolInvocation {
	return contractx.ToolInvocation{
		Tool:   ToolRecordMedication,
		Params: map[string]any{"medication_name": name},
	}
}

func TestExecuteRecordMedication(t *testing.T) {
	t.Parallel()

	store := medicationx.NewStore()
	adapter := New(store, nil)

	out := adapter.Execute(context.Background(), "session-1", recordInvocation("  vitamin   D "))
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.Error)
	}
	if out.MedicationName != "vitamin D" {
		t.Fatalf("unexpected normalized name: %q", out.MedicationName)
	}
	if got := store.List(); len(got) != 1 {
		t.Fatalf("expected 1 store write, got %d", len(got))
	}
}

func TestExecuteDedupWithinSession(t *testing.T) {
	t.Parallel()

	store := medicationx.NewStore()
	adapter := New(store, nil)

	for i := 0; i < 2; i++ {
		out := adapter.Execute(context.Background(), "session-1", recordInvocation("Aspirin"))
		if !out.Success {
			t.Fatalf("call %d failed: %s", i, out.Error)
		}
	}
	if got := store.List(); len(got) != 1 {
		t.Fatalf("expected exactly one store write, got %d", len(got))
	}
}

func TestExecuteDedupResetOnNewSession(t *testing.T) {
	t.Parallel()

	store := medicationx.NewStore()
	adapter := New(store, nil)

	if out := adapter.Execute(context.Background(), "session-1", recordInvocation("Aspirin")); !out.Success {
		t.Fatalf("first call failed: %s", out.Error)
	}
	first := store.List()

	adapter.ResetSession("session-1")

	// New thread: processed set is empty again, but the store's idempotent
	// insert keeps the original record and timestamp.
	if out := adapter.Execute(context.Background(), "session-2", recordInvocation("Aspirin")); !out.Success {
		t.Fatalf("new-session call failed: %s", out.Error)
	}

	got := store.List()
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if !got[0].CreatedAt.Equal(first[0].CreatedAt) {
		t.Fatal("idempotent insert must preserve CreatedAt across sessions")
	}
}

func TestExecuteDedupIsPerSession(t *testing.T) {
	t.Parallel()

	store := medicationx.NewStore()
	adapter := New(store, nil)

	adapter.Execute(context.Background(), "session-1", recordInvocation("Metformin"))
	adapter.Execute(context.Background(), "session-2", recordInvocation("Ibuprofen"))
	adapter.ResetSession("session-1")
	out := adapter.Execute(context.Background(), "session-2", recordInvocation("Ibuprofen"))
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.Error)
	}

	if got := store.List(); len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}

func TestExecuteEmptyMedicationName(t *testing.T) {
	t.Parallel()

	store := medicationx.NewStore()
	adapter := New(store, nil)

	out := adapter.Execute(context.Background(), "session-1", recordInvocation("   "))
	if out.Success {
		t.Fatal("blank medication name must fail")
	}
	if got := store.List(); len(got) != 0 {
		t.Fatalf("failed invocation must not mutate the store, got %d records", len(got))
	}
}

func TestExecuteMalformedParams(t *testing.T) {
	t.Parallel()

	adapter := New(medicationx.NewStore(), nil)

	out := adapter.Execute(context.Background(), "session-1", contractx.ToolInvocation{
		Tool:   ToolRecordMedication,
		Params: map[string]any{"medication_name": 42},
	})
	if out.Success {
		t.Fatal("non-string medication_name must fail")
	}

	out = adapter.Execute(context.Background(), "session-1", contractx.ToolInvocation{Tool: ToolRecordMedication})
	if out.Success {
		t.Fatal("missing medication_name must fail")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	adapter := New(medicationx.NewStore(), nil)

	out := adapter.Execute(context.Background(), "session-1", contractx.ToolInvocation{
		Tool:   "book_flight",
		Params: map[string]any{"destination": "Lisbon"},
	})
	if out.Success {
		t.Fatal("unknown tool must be rejected")
	}
	if out.Error == "" {
		t.Fatal("expected a non-empty failure reason")
	}
}

func TestExecuteEmptySession(t *testing.T) {
	t.Parallel()

	adapter := New(medicationx.NewStore(), nil)
	if out := adapter.Execute(context.Background(), "  ", recordInvocation("Aspirin")); out.Success {
		t.Fatal("blank session id must fail")
	}
}

func TestExecuteSwitchTheme(t *testing.T) {
	t.Parallel()

	theme := NewThemeState()
	adapter := New(medicationx.NewStore(), theme)

	out := adapter.Execute(context.Background(), "session-1", contractx.ToolInvocation{
		Tool:   ToolSwitchTheme,
		Params: map[string]any{"theme": " Dark Mode "},
	})
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.Error)
	}
	if out.Theme != ThemeDark {
		t.Fatalf("unexpected theme: %q", out.Theme)
	}
	if theme.Current() != ThemeDark {
		t.Fatalf("theme state not updated: %q", theme.Current())
	}
}

func TestNormalizeColorScheme(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "light", want: ThemeLight},
		{in: " DARK ", want: ThemeDark},
		{in: "switch to dark mode", want: ThemeDark},
		{in: "lighter please", want: ThemeLight},
		{in: "blue", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := NormalizeColorScheme(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NormalizeColorScheme(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeColorScheme(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeColorScheme(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
