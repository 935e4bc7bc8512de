package machine

import (
	"slices"
	"time"
)

// Metadata keys the platform reads from Config.Metadata.
const (
	MetadataPlatformVersion    = "fly_platform_version"
	MetadataProcessGroup       = "fly_process_group"
	MetadataLegacyProcessGroup = "process_group"
	PlatformVersionV2          = "v2"

	ProcessGroupApp                  = "app"
	ProcessGroupAppConsole           = "fly_app_console"
	ProcessGroupReleaseCommand       = "fly_app_release_command"
	ProcessGroupLegacyReleaseCommand = "release_command"
)

// Machine is a single Fly Machine as reported by the API.
type Machine struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	State      State           `json:"state"`
	Region     string          `json:"region"`
	ImageRef   ImageRef        `json:"image_ref"`
	InstanceID string          `json:"instance_id"`
	Version    string          `json:"version,omitempty"`
	PrivateIP  string          `json:"private_ip"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Config     *Config         `json:"config,omitempty"`
	Events     []*MachineEvent `json:"events,omitempty"`
	Checks     []*CheckStatus  `json:"checks,omitempty"`
	LeaseNonce string          `json:"nonce,omitempty"`
}

// FullImageRef returns the complete image reference the machine runs.
func (m *Machine) FullImageRef() string {
	return m.ImageRef.FullRef()
}

// ImageRefWithVersion returns repository:tag with the fly.version label.
func (m *Machine) ImageRefWithVersion() string {
	return m.ImageRef.StringWithVersion()
}

// ImageVersion returns the fly.version image label, if any.
func (m *Machine) ImageVersion() string {
	return m.ImageRef.Labels["fly.version"]
}

// CurrentInstanceID returns the version when set, otherwise the instance id.
// Wait requests must carry this value.
func (m *Machine) CurrentInstanceID() string {
	if m.Version != "" {
		return m.Version
	}
	return m.InstanceID
}

func (m *Machine) metadata(key string) string {
	if m.Config == nil {
		return ""
	}
	return m.Config.Metadata[key]
}

// IsAppsV2 reports whether the machine belongs to a V2 apps platform app.
func (m *Machine) IsAppsV2() bool {
	return m.metadata(MetadataPlatformVersion) == PlatformVersionV2
}

// IsActive reports whether the machine is neither destroyed nor being destroyed.
func (m *Machine) IsActive() bool {
	return m.State != StateDestroyed && m.State != StateDestroying
}

// IsFlyAppsPlatform reports whether the machine is an active V2 apps machine.
func (m *Machine) IsFlyAppsPlatform() bool {
	return m.IsAppsV2() && m.IsActive()
}

// IsFlyAppsConsole reports whether the machine is an app console machine.
func (m *Machine) IsFlyAppsConsole() bool {
	return m.IsFlyAppsPlatform() && m.HasProcessGroup(ProcessGroupAppConsole)
}

// IsReleaseCommandMachine reports whether the machine runs the app's release
// command.
func (m *Machine) IsReleaseCommandMachine() bool {
	return m.HasAnyProcessGroup(ProcessGroupReleaseCommand, ProcessGroupLegacyReleaseCommand)
}

// ProcessGroup returns the machine's process group. The current metadata key
// wins whenever it is present, even if empty; the legacy key is read only when
// it is absent.
func (m *Machine) ProcessGroup() string {
	if m.Config == nil {
		return ""
	}
	if g, ok := m.Config.Metadata[MetadataProcessGroup]; ok {
		return g
	}
	return m.Config.Metadata[MetadataLegacyProcessGroup]
}

// HasProcessGroup reports whether the machine belongs to group.
func (m *Machine) HasProcessGroup(group string) bool {
	g := m.ProcessGroup()
	return g != "" && g == group
}

// HasAnyProcessGroup reports whether the machine belongs to any of groups.
func (m *Machine) HasAnyProcessGroup(groups ...string) bool {
	g := m.ProcessGroup()
	return g != "" && slices.Contains(groups, g)
}

// GetLatestEvent returns the event with the highest timestamp, or nil.
func (m *Machine) GetLatestEvent() *MachineEvent {
	var latest *MachineEvent
	for _, e := range m.Events {
		if e == nil {
			continue
		}
		if latest == nil || e.Timestamp > latest.Timestamp {
			latest = e
		}
	}
	return latest
}

// AllHealthChecks summarizes the machine's health check results.
func (m *Machine) AllHealthChecks() HealthCheckStatus {
	var s HealthCheckStatus
	for _, c := range m.Checks {
		if c == nil {
			continue
		}
		s.Total++
		switch c.Status {
		case CheckPassing:
			s.Passing++
		case CheckWarning:
			s.Warn++
		case CheckCritical:
			s.Critical++
		}
	}
	return s
}

// HealthCheckStatus counts checks by result.
type HealthCheckStatus struct {
	Total, Passing, Warn, Critical int
}

// CheckState is a health check result.
type CheckState string

const (
	CheckCritical CheckState = "critical"
	CheckWarning  CheckState = "warning"
	CheckPassing  CheckState = "passing"
)

// CheckStatus is the latest result of a named health check.
type CheckStatus struct {
	Name      string     `json:"name"`
	Status    CheckState `json:"status"`
	Output    string     `json:"output"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
