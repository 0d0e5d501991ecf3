package config

import "time"

// Capability is one of the independently feature-flagged generation paths
type Capability string

const (
	CapabilityText       Capability = "text"
	CapabilityImage      Capability = "image"
	CapabilityScreenshot Capability = "screenshot"
)

// Modality describes an input or output channel of a model
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Credential holds one provider credential
type Credential struct {
	Provider string `json:"provider"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	BaseURL  string `json:"base_url,omitempty"`
}

// ModelDescriptor is read-only reference data for one configured model
type ModelDescriptor struct {
	ID       string     `json:"id"`
	Provider string     `json:"provider"`
	Name     string     `json:"name"`
	Input    []Modality `json:"input"`
	Output   []Modality `json:"output"`
}

// SupportsTextOut reports whether the model emits text
func (m ModelDescriptor) SupportsTextOut() bool {
	return m.hasModality(m.Output, ModalityText)
}

// SupportsImageOut reports whether the model emits images
func (m ModelDescriptor) SupportsImageOut() bool {
	return m.hasModality(m.Output, ModalityImage)
}

// SupportsVision reports whether the model accepts image input
func (m ModelDescriptor) SupportsVision() bool {
	return m.hasModality(m.Input, ModalityImage)
}

func (m ModelDescriptor) hasModality(set []Modality, want Modality) bool {
	for _, mod := range set {
		if mod == want {
			return true
		}
	}
	return false
}

// FeatureFlags resolves which capabilities are administratively enabled
type FeatureFlags struct {
	TextEnabled       bool
	ImageEnabled      bool
	ScreenshotEnabled bool
}

// Enabled reports whether the given capability is enabled
func (f FeatureFlags) Enabled(capability Capability) bool {
	switch capability {
	case CapabilityText:
		return f.TextEnabled
	case CapabilityImage:
		return f.ImageEnabled
	case CapabilityScreenshot:
		return f.ScreenshotEnabled
	default:
		return false
	}
}

// Limits holds the numeric resource budgets of the gateway
type Limits struct {
	StreamTimeout     time.Duration
	StreamIdleTimeout time.Duration
	MaxResponseSize   int64
	MaxUploadSize     int64
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Window       time.Duration
	DefaultQuota int
	Quotas       map[Capability]int
}

// QuotaFor returns the quota for a capability namespace
func (r RateLimitConfig) QuotaFor(capability Capability) int {
	if quota, ok := r.Quotas[capability]; ok && quota > 0 {
		return quota
	}
	return r.DefaultQuota
}

// FetchConfig bounds downloads of provider-generated assets
type FetchConfig struct {
	Timeout      time.Duration
	MaxSize      int64
	AllowedHosts []string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string
	Port        int
	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

// DefaultModels names the model used per capability when the client does not
// pick one explicitly
type DefaultModels struct {
	Text   string
	Image  string
	Vision string
}

// GatewayConfig is the complete configuration injected into the gateway at
// construction time; nothing reads ambient global state after startup
type GatewayConfig struct {
	Server        ServerConfig
	Features      FeatureFlags
	Limits        Limits
	RateLimit     RateLimitConfig
	Fetch         FetchConfig
	Credentials   []Credential
	Models        []ModelDescriptor
	Defaults      DefaultModels
	ArtifactDir   string
	ArtifactURL   string
	MongoURI      string
	MongoDatabase string
}

// Configured reports whether at least one provider credential exists
func (c *GatewayConfig) Configured() bool {
	return len(c.Credentials) > 0
}

// CredentialFor returns the credential for a provider, if present
func (c *GatewayConfig) CredentialFor(provider string) (Credential, bool) {
	for _, cred := range c.Credentials {
		if cred.Provider == provider {
			return cred, true
		}
	}
	return Credential{}, false
}

// ModelByID resolves a model descriptor from configuration
func (c *GatewayConfig) ModelByID(id string) (ModelDescriptor, bool) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelDescriptor{}, false
}

// Providers returns the distinct provider names with credentials
func (c *GatewayConfig) Providers() []string {
	seen := make(map[string]bool)
	providers := make([]string, 0, len(c.Credentials))
	for _, cred := range c.Credentials {
		if !seen[cred.Provider] {
			seen[cred.Provider] = true
			providers = append(providers, cred.Provider)
		}
	}
	return providers
}
