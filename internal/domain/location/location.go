package location

import (
	"errors"
	"strconv"
	"strings"
)

// Mode selects how the proxy forwards the request path
type Mode string

const (
	// Relative strips the proxy prefix before forwarding
	Relative Mode = "relative"
	// Absolute forwards the full request path
	Absolute Mode = "absolute"
)

// Unselected is the port value meaning "no target, show the landing page"
const Unselected = "_placeholder"

// ParseMode maps unknown or empty values to Relative
func ParseMode(s string) Mode {
	if Mode(s) == Absolute {
		return Absolute
	}
	return Relative
}

// ErrInvalidPort is returned for a selected port that is not a valid TCP port
var ErrInvalidPort = errors.New("invalid port")

// ValidPort reports whether s is a canonical TCP port number in 1..65535
func ValidPort(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1 && n <= 65535 && strconv.Itoa(n) == s
}

// Location is where the embedded frame is pointed
type Location struct {
	Mode     Mode
	Port     string
	Path     string // escaped form, no leading slash
	Query    string // "" or starting with "?"
	Fragment string // "" or starting with "#"
}

// Landing returns the unselected location
func Landing() Location {
	return Location{Mode: Relative, Port: Unselected}
}

// IsUnselected reports whether the location points at the landing page
func (l Location) IsUnselected() bool {
	return l.Port == "" || l.Port == Unselected
}

// Normalize applies the storage conventions: known mode, no leading slash on path
func (l Location) Normalize() Location {
	l.Mode = ParseMode(string(l.Mode))
	l.Path = strings.TrimLeft(l.Path, "/")
	if l.Port == "" {
		l.Port = Unselected
	}
	return l
}
