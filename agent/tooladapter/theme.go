package tooladapter

import (
	"fmt"
	"strings"
	"sync"

	contractx "github.com/careloop/health-coach/agent/contract"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	// DefaultTheme is what a fresh session renders with.
	DefaultTheme = ThemeLight
)

// NormalizeColorScheme is lenient the way users are: exact "light"/"dark"
// after trimming and lowering, otherwise a substring match, otherwise an
// error.
func NormalizeColorScheme(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case ThemeLight, ThemeDark:
		return normalized, nil
	}
	if strings.Contains(normalized, ThemeDark) {
		return ThemeDark, nil
	}
	if strings.Contains(normalized, ThemeLight) {
		return ThemeLight, nil
	}
	return "", fmt.Errorf("%w: theme must be either 'light' or 'dark'", contractx.ErrValidation)
}

// ThemeState is the session-scoped UI theme the switch_theme tool flips.
type ThemeState struct {
	mu      sync.Mutex
	current string
}

func NewThemeState() *ThemeState {
	return &ThemeState{current: DefaultTheme}
}

func (t *ThemeState) Set(theme string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = theme
}

func (t *ThemeState) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Reset restores the default theme at a session boundary.
func (t *ThemeState) Reset() {
	t.Set(DefaultTheme)
}
