package machine

import (
	"fmt"
	"slices"
	"strings"

	units "github.com/docker/go-units"
)

// CPU kinds.
const (
	CPUKindShared      = "shared"
	CPUKindPerformance = "performance"
	CPUKindDedicated   = "dedicated"
)

// Memory bounds per CPU, in megabytes.
const (
	MinMemoryMBPerSharedCPU = 256
	MinMemoryMBPerCPU       = 2048
	MaxMemoryMBPerSharedCPU = 2048
	MaxMemoryMBPerCPU       = 8192
)

// Guest describes the VM resources of a machine.
type Guest struct {
	CPUKind    string   `json:"cpu_kind"`
	CPUs       int      `json:"cpus"`
	MemoryMB   int      `json:"memory_mb"`
	KernelArgs []string `json:"kernel_args,omitempty"`
}

// Presets are the named machine sizes. Memory is the minimum for the CPU count.
var Presets = map[string]Guest{
	"shared-cpu-1x": {CPUKind: CPUKindShared, CPUs: 1, MemoryMB: 1 * MinMemoryMBPerSharedCPU},
	"shared-cpu-2x": {CPUKind: CPUKindShared, CPUs: 2, MemoryMB: 2 * MinMemoryMBPerSharedCPU},
	"shared-cpu-4x": {CPUKind: CPUKindShared, CPUs: 4, MemoryMB: 4 * MinMemoryMBPerSharedCPU},
	"shared-cpu-8x": {CPUKind: CPUKindShared, CPUs: 8, MemoryMB: 8 * MinMemoryMBPerSharedCPU},

	"performance-1x":  {CPUKind: CPUKindPerformance, CPUs: 1, MemoryMB: 1 * MinMemoryMBPerCPU},
	"performance-2x":  {CPUKind: CPUKindPerformance, CPUs: 2, MemoryMB: 2 * MinMemoryMBPerCPU},
	"performance-4x":  {CPUKind: CPUKindPerformance, CPUs: 4, MemoryMB: 4 * MinMemoryMBPerCPU},
	"performance-8x":  {CPUKind: CPUKindPerformance, CPUs: 8, MemoryMB: 8 * MinMemoryMBPerCPU},
	"performance-16x": {CPUKind: CPUKindPerformance, CPUs: 16, MemoryMB: 16 * MinMemoryMBPerCPU},
}

// InvalidPresetError is returned for sizes outside the shared and performance
// families.
type InvalidPresetError struct {
	Size string
}

func (e *InvalidPresetError) Error() string {
	return fmt.Sprintf("invalid machine preset requested '%s', expected to start with 'shared' or 'performance'", e.Size)
}

// InvalidSizeError is returned for an unknown size within a known family.
type InvalidSizeError struct {
	Size       string
	ValidSizes string
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("%s is an invalid machine size, choose one of [%s]", e.Size, e.ValidSizes)
}

// GuestFromSize returns the guest for a preset name.
func GuestFromSize(size string) (*Guest, error) {
	g := &Guest{}
	if err := g.SetSize(size); err != nil {
		return nil, err
	}
	return g, nil
}

// SetSize copies the CPU kind, CPU count and memory of a preset. Kernel args
// are left alone.
func (g *Guest) SetSize(size string) error {
	if p, ok := Presets[size]; ok {
		g.CPUKind = p.CPUKind
		g.CPUs = p.CPUs
		g.MemoryMB = p.MemoryMB
		return nil
	}

	var family string
	switch {
	case strings.HasPrefix(size, CPUKindShared):
		family = CPUKindShared
	case strings.HasPrefix(size, CPUKindPerformance):
		family = CPUKindPerformance
	default:
		return &InvalidPresetError{Size: size}
	}

	var valid []string
	for name := range Presets {
		if strings.HasPrefix(name, family) {
			valid = append(valid, name)
		}
	}
	slices.Sort(valid)
	return &InvalidSizeError{Size: size, ValidSizes: strings.Join(valid, ", ")}
}

// SizeType returns the preset-style name for the guest's CPU kind and count.
func (g *Guest) SizeType() string {
	switch g.CPUKind {
	case CPUKindShared:
		return fmt.Sprintf("shared-cpu-%dx", g.CPUs)
	case CPUKindDedicated:
		return fmt.Sprintf("dedicated-cpu-%dx", g.CPUs)
	case CPUKindPerformance:
		return fmt.Sprintf("performance-%dx", g.CPUs)
	default:
		return "unknown"
	}
}

// MemoryString renders the guest memory in binary units, e.g. "2GiB".
func (g *Guest) MemoryString() string {
	return units.BytesSize(float64(g.MemoryMB) * units.MiB)
}

// SetMemory parses a human-readable size such as "512mb" or "2gb" and sets it
// as the guest memory.
func (g *Guest) SetMemory(s string) error {
	mb, err := ParseMemory(s)
	if err != nil {
		return err
	}
	g.MemoryMB = mb
	return nil
}

// ParseMemory parses a human-readable memory size into megabytes. Plain
// numbers are taken as megabytes. Unit suffixes are binary, so "1gb" is 1024.
func ParseMemory(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty memory size")
	}
	if s[len(s)-1] >= '0' && s[len(s)-1] <= '9' {
		s += "m"
	}
	b, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size %q: %w", s, err)
	}
	if b < units.MiB || b%units.MiB != 0 {
		return 0, fmt.Errorf("memory size %q must be a whole number of megabytes", s)
	}
	return int(b / units.MiB), nil
}

// ValidateMemory checks the memory against the per-CPU bounds of the guest's
// CPU kind. Memory must also be a multiple of 256MB.
func (g *Guest) ValidateMemory() error {
	var lo, hi int
	switch g.CPUKind {
	case CPUKindShared:
		lo, hi = MinMemoryMBPerSharedCPU, MaxMemoryMBPerSharedCPU
	case CPUKindPerformance, CPUKindDedicated:
		lo, hi = MinMemoryMBPerCPU, MaxMemoryMBPerCPU
	default:
		return fmt.Errorf("unknown cpu kind %q", g.CPUKind)
	}
	lo, hi = lo*g.CPUs, hi*g.CPUs
	if g.MemoryMB < lo || g.MemoryMB > hi {
		return fmt.Errorf("%s requires between %dMB and %dMB of memory, got %dMB", g.SizeType(), lo, hi, g.MemoryMB)
	}
	if g.MemoryMB%MinMemoryMBPerSharedCPU != 0 {
		return fmt.Errorf("memory must be a multiple of %dMB, got %dMB", MinMemoryMBPerSharedCPU, g.MemoryMB)
	}
	return nil
}
