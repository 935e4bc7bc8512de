package machine

// Config is the desired configuration of a machine.
type Config struct {
	Env         map[string]string `json:"env,omitempty"`
	Init        *Init             `json:"init,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Mounts      []Mount           `json:"mounts,omitempty"`
	Services    []Service         `json:"services,omitempty"`
	Metrics     *Metrics          `json:"metrics,omitempty"`
	Checks      map[string]Check  `json:"checks,omitempty"`
	Statics     []Static          `json:"statics,omitempty"`
	Image       string            `json:"image"`
	Schedule    string            `json:"schedule,omitempty"`
	AutoDestroy bool              `json:"auto_destroy,omitempty"`
	Restart     Restart           `json:"restart"`
	Guest       *Guest            `json:"guest,omitempty"`
	DNS         *DNSConfig        `json:"dns,omitempty"`
	Processes   []Process         `json:"processes,omitempty"`
	Standbys    []string          `json:"standbys,omitempty"`
	StopConfig  *StopConfig       `json:"stop_config,omitempty"`
}

// Init overrides the image's process startup.
type Init struct {
	Exec       []string `json:"exec,omitempty"`
	Entrypoint []string `json:"entrypoint,omitempty"`
	Cmd        []string `json:"cmd,omitempty"`
	TTY        bool     `json:"tty,omitempty"`
}

// Mount attaches a volume to the machine. Build one with MountFromVolumeID or
// MountFromVolumeName.
type Mount struct {
	Encrypted *bool  `json:"encrypted,omitempty"`
	Path      string `json:"path"`
	SizeGB    *int   `json:"size_gb,omitempty"`
	Volume    string `json:"volume,omitempty"`
	Name      string `json:"name,omitempty"`
}

// MountFromVolumeID mounts the volume with the given id at path.
func MountFromVolumeID(id, path string) Mount {
	return Mount{Volume: id, Path: path}
}

// MountFromVolumeName mounts the volume with the given name at path.
func MountFromVolumeName(name, path string) Mount {
	return Mount{Name: name, Path: path}
}

// VolumeID returns the mounted volume's id, if the mount references one.
func (m Mount) VolumeID() string { return m.Volume }

// VolumeName returns the mounted volume's name, if the mount references one.
func (m Mount) VolumeName() string { return m.Name }

// Service exposes an internal port through the Fly proxy.
type Service struct {
	Protocol           string              `json:"protocol"`
	InternalPort       int                 `json:"internal_port"`
	Autostop           *bool               `json:"autostop,omitempty"`
	Autostart          *bool               `json:"autostart,omitempty"`
	MinMachinesRunning *int                `json:"min_machines_running,omitempty"`
	Ports              []Port              `json:"ports,omitempty"`
	Checks             []Check             `json:"checks,omitempty"`
	Concurrency        *ServiceConcurrency `json:"concurrency,omitempty"`
}

// Metrics configures Prometheus scraping.
type Metrics struct {
	Port int    `json:"port"`
	Path string `json:"path"`
}

// Check is a health check definition.
type Check struct {
	Port              *int         `json:"port,omitempty"`
	Type              string       `json:"type,omitempty"`
	Interval          *Duration    `json:"interval,omitempty"`
	Timeout           *Duration    `json:"timeout,omitempty"`
	GracePeriod       *Duration    `json:"grace_period,omitempty"`
	HTTPMethod        string       `json:"method,omitempty"`
	HTTPPath          string       `json:"path,omitempty"`
	HTTPProtocol      string       `json:"protocol,omitempty"`
	HTTPSkipTLSVerify *bool        `json:"tls_skip_verify,omitempty"`
	HTTPHeaders       []HTTPHeader `json:"headers,omitempty"`
}

// HTTPHeader is a header sent by HTTP checks.
type HTTPHeader struct {
	Name   string   `json:"name"`
	Values []string `json:"value"`
}

// Static maps a URL prefix to files inside the guest.
type Static struct {
	GuestPath string `json:"guest_path"`
	URLPrefix string `json:"url_prefix"`
}

// RestartPolicy controls when a machine is restarted after exiting.
type RestartPolicy string

const (
	RestartPolicyNo        RestartPolicy = "no"
	RestartPolicyOnFailure RestartPolicy = "on-failure"
	RestartPolicyAlways    RestartPolicy = "always"
)

// Restart holds the restart policy.
type Restart struct {
	Policy     RestartPolicy `json:"policy,omitempty"`
	MaxRetries int           `json:"max_retries,omitempty"`
}

// DNSConfig controls internal DNS registration.
type DNSConfig struct {
	SkipRegistration bool `json:"skip_registration,omitempty"`
}

// Process is an additional process run alongside init.
type Process struct {
	ExecOverride       []string          `json:"exec,omitempty"`
	EntrypointOverride []string          `json:"entrypoint,omitempty"`
	CmdOverride        []string          `json:"cmd,omitempty"`
	UserOverride       string            `json:"user,omitempty"`
	ExtraEnv           map[string]string `json:"env,omitempty"`
}

// StopConfig sets how the machine is stopped.
type StopConfig struct {
	Timeout *Duration `json:"timeout,omitempty"`
	Signal  string    `json:"signal,omitempty"`
}

// Port is a public port, or a port range, of a service.
type Port struct {
	Port              *int               `json:"port,omitempty"`
	StartPort         *int               `json:"start_port,omitempty"`
	EndPort           *int               `json:"end_port,omitempty"`
	Handlers          []string           `json:"handlers,omitempty"`
	ForceHTTPS        bool               `json:"force_https,omitempty"`
	TLSOptions        *TLSOptions        `json:"tls_options,omitempty"`
	HTTPOptions       *HTTPOptions       `json:"http_options,omitempty"`
	ProxyProtoOptions *ProxyProtoOptions `json:"proxy_proto_options,omitempty"`
}

// ServiceConcurrency sets connection or request limits for a service.
type ServiceConcurrency struct {
	Type      string `json:"type"`
	HardLimit int    `json:"hard_limit"`
	SoftLimit int    `json:"soft_limit"`
}

type TLSOptions struct {
	ALPN              []string `json:"alpn,omitempty"`
	Versions          []string `json:"versions,omitempty"`
	DefaultSelfSigned *bool    `json:"default_self_signed,omitempty"`
}

type HTTPOptions struct {
	Compress *bool                `json:"compress,omitempty"`
	Response *HTTPResponseOptions `json:"response,omitempty"`
}

type HTTPResponseOptions struct {
	Headers map[string]any `json:"headers,omitempty"`
}

type ProxyProtoOptions struct {
	Version string `json:"version,omitempty"`
}
