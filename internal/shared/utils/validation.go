// Package utils holds input validation shared by the HTTP and WebSocket
// surfaces.
package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

// Size limits
const (
	MaxMessageSize = 64 * 1024 // single WebSocket frame
	MaxPortLength  = 32
	MaxModeLength  = 16
	MaxPathLength  = 4096
	MaxHrefLength  = 8192
	MaxTitleLength = 1024
)

// ValidateString checks a field's length and rejects null bytes
func ValidateString(value, fieldName string, maxLen int) error {
	if utf8.RuneCountInString(value) > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateMessage checks the client-supplied fields of a WebSocket message
func ValidateMessage(msg types.WSMessage) error {
	checks := []struct {
		value, name string
		max         int
	}{
		{msg.Mode, "mode", MaxModeLength},
		{msg.Port, "port", MaxPortLength},
		{msg.Path, "path", MaxPathLength},
		{msg.Href, "href", MaxHrefLength},
		{msg.Title, "title", MaxTitleLength},
	}
	for _, c := range checks {
		if err := ValidateString(c.value, c.name, c.max); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStateEntry checks a stored location submitted over HTTP
func ValidateStateEntry(entry types.StateEntry) error {
	checks := []struct {
		value, name string
		max         int
	}{
		{entry.Mode, "mode", MaxModeLength},
		{entry.Port, "port", MaxPortLength},
		{entry.Pathname, "pathname", MaxPathLength},
		{entry.Search, "search", MaxPathLength},
		{entry.Hash, "hash", MaxPathLength},
	}
	for _, c := range checks {
		if err := ValidateString(c.value, c.name, c.max); err != nil {
			return err
		}
	}

	// empty and placeholder ports are left for the store to reject as unselected
	if entry.Port != "" && entry.Port != location.Unselected && !location.ValidPort(entry.Port) {
		return fmt.Errorf("%w: %q", location.ErrInvalidPort, entry.Port)
	}
	return nil
}
