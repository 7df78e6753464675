package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// PortsFile is the on-disk form of the ports section. Label keys are port
// numbers written as strings so every format can express them.
type PortsFile struct {
	Persistent []int             `json:"persistent" yaml:"persistent" toml:"persistent"`
	Hidden     []int             `json:"hidden" yaml:"hidden" toml:"hidden"`
	Labels     map[string]string `json:"labels" yaml:"labels" toml:"labels"`
}

// LoadPortsFile reads a ports file. The format follows the extension:
// .yaml/.yml, .toml or .json.
func LoadPortsFile(path string) (PortsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PortsFile{}, fmt.Errorf("failed to read ports file: %w", err)
	}

	var file PortsFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".json":
		err = sonic.Unmarshal(data, &file)
	default:
		return PortsFile{}, fmt.Errorf("unsupported ports file format %q", ext)
	}
	if err != nil {
		return PortsFile{}, fmt.Errorf("failed to parse ports file %s: %w", path, err)
	}
	return file, nil
}

// Merge adds the file's ports to the environment ones. Environment labels win.
func (p PortsConfig) Merge(file PortsFile) (PortsConfig, error) {
	out := PortsConfig{
		Persistent: union(p.Persistent, file.Persistent),
		Hidden:     union(p.Hidden, file.Hidden),
		Labels:     make(map[int]string, len(p.Labels)+len(file.Labels)),
		File:       p.File,
	}

	for key, label := range file.Labels {
		port, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return PortsConfig{}, fmt.Errorf("invalid port %q in ports file labels", key)
		}
		out.Labels[port] = label
	}
	for port, label := range p.Labels {
		out.Labels[port] = label
	}
	return out, nil
}

func union(a, b []int) []int {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}
