package ports

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

// Socket is a local TCP endpoint as reported by the OS
type Socket struct {
	IP     string
	Port   uint32
	Status string
}

// Lister enumerates TCP sockets
type Lister func(ctx context.Context) ([]Socket, error)

// DiscoveryConfig controls which ports are advertised
type DiscoveryConfig struct {
	// Persistent ports are always listed, listening or not
	Persistent []int
	// Hidden ports are never listed when found by discovery
	Hidden []int
	// Labels replace the default label (the port number)
	Labels map[int]string
}

// Discoverer builds the open-ports list
type Discoverer struct {
	cfg    DiscoveryConfig
	hidden map[int]struct{}
	list   Lister
}

// localAddrs are the bind addresses reachable through the proxy
var localAddrs = map[string]struct{}{
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"::1":       {},
	"::":        {},
}

// NewDiscoverer creates a discoverer backed by gopsutil
func NewDiscoverer(cfg DiscoveryConfig) *Discoverer {
	return NewDiscovererWithLister(cfg, SystemSockets)
}

// NewDiscovererWithLister creates a discoverer with a custom socket source
func NewDiscovererWithLister(cfg DiscoveryConfig, list Lister) *Discoverer {
	hidden := make(map[int]struct{}, len(cfg.Hidden))
	for _, p := range cfg.Hidden {
		hidden[p] = struct{}{}
	}
	return &Discoverer{cfg: cfg, hidden: hidden, list: list}
}

// SystemSockets lists TCP sockets via gopsutil
func SystemSockets(ctx context.Context) ([]Socket, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, err
	}
	sockets := make([]Socket, 0, len(conns))
	for _, c := range conns {
		sockets = append(sockets, Socket{IP: c.Laddr.IP, Port: c.Laddr.Port, Status: c.Status})
	}
	return sockets, nil
}

// Discover returns persistent ports plus listening local sockets, sorted and
// deduplicated
func (d *Discoverer) Discover(ctx context.Context) ([]types.PortEntry, error) {
	sockets, err := d.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sockets: %w", err)
	}

	seen := make(map[int]struct{}, len(d.cfg.Persistent)+len(sockets))
	for _, p := range d.cfg.Persistent {
		if validPort(p) {
			seen[p] = struct{}{}
		}
	}
	for _, s := range sockets {
		if s.Status != "LISTEN" {
			continue
		}
		if _, ok := localAddrs[s.IP]; !ok {
			continue
		}
		p := int(s.Port)
		if _, ok := d.hidden[p]; ok || !validPort(p) {
			continue
		}
		seen[p] = struct{}{}
	}

	nums := make([]int, 0, len(seen))
	for p := range seen {
		nums = append(nums, p)
	}
	slices.Sort(nums)

	entries := make([]types.PortEntry, 0, len(nums))
	for _, p := range nums {
		port := strconv.Itoa(p)
		label, ok := d.cfg.Labels[p]
		if !ok || label == "" {
			label = port
		}
		entries = append(entries, types.PortEntry{Port: port, Label: label})
	}
	return entries, nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
