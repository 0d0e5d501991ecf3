package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sitesmith/ai-gateway/internal/utils"
)

// LoadCredentials reads provider credentials from a JSON file. A missing file
// yields an empty credential set; the gateway then answers 503 on generation
// routes until credentials are provided.
func LoadCredentials(filePath string) ([]Credential, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials file %s: %w", filePath, err)
	}
	var creds []Credential
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", filePath, err)
	}
	return creds, nil
}

// LoadModels reads model descriptors from a JSON file
func LoadModels(filePath string) ([]ModelDescriptor, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read models file %s: %w", filePath, err)
	}
	var models []ModelDescriptor
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("failed to parse models file %s: %w", filePath, err)
	}
	return models, nil
}

// Load resolves the complete gateway configuration from the environment and
// the credentials/models JSON files.
func Load() (*GatewayConfig, error) {
	creds, err := LoadCredentials(utils.GetEnvString("CREDENTIALS_FILE", "credentials.json"))
	if err != nil {
		return nil, err
	}

	models, err := LoadModels(utils.GetEnvString("MODELS_FILE", "models.json"))
	if err != nil {
		return nil, err
	}

	cfg := &GatewayConfig{
		Server: ServerConfig{
			Host:        utils.GetEnvString("HOST", "0.0.0.0"),
			Port:        utils.GetEnvPort("PORT", 8082),
			ReadTimeout: utils.GetEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			IdleTimeout: utils.GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Limits: Limits{
			StreamTimeout:     utils.GetEnvDuration("STREAM_TIMEOUT", 300*time.Second),
			StreamIdleTimeout: utils.GetEnvDuration("STREAM_IDLE_TIMEOUT", 60*time.Second),
			MaxResponseSize:   utils.GetEnvInt64("MAX_RESPONSE_SIZE", 2*1024*1024),
			MaxUploadSize:     utils.GetEnvInt64("MAX_UPLOAD_SIZE", 5*1024*1024),
		},
		RateLimit: RateLimitConfig{
			Window:       utils.GetEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			DefaultQuota: utils.GetEnvInt("RATE_LIMIT_QUOTA", 30),
			Quotas: map[Capability]int{
				CapabilityText:       utils.GetEnvInt("RATE_LIMIT_QUOTA_TEXT", 0),
				CapabilityImage:      utils.GetEnvInt("RATE_LIMIT_QUOTA_IMAGE", 0),
				CapabilityScreenshot: utils.GetEnvInt("RATE_LIMIT_QUOTA_SCREENSHOT", 0),
			},
		},
		Fetch: FetchConfig{
			Timeout:      utils.GetEnvDuration("FETCH_TIMEOUT", 30*time.Second),
			MaxSize:      utils.GetEnvInt64("MAX_FETCH_SIZE", 10*1024*1024),
			AllowedHosts: utils.GetEnvStringSlice("FETCH_ALLOWED_HOSTS", nil),
		},
		Credentials:   creds,
		Models:        models,
		ArtifactDir:   utils.GetEnvString("ARTIFACT_DIR", "artifacts"),
		ArtifactURL:   utils.GetEnvString("ARTIFACT_BASE_URL", "/artifacts"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: utils.GetEnvString("MONGODB_DATABASE", "ai-gateway"),
	}

	cfg.Features = resolveFeatureFlags(cfg)
	cfg.Defaults = resolveDefaultModels(cfg)

	return cfg, nil
}

// resolveFeatureFlags computes capability flags: a capability defaults to
// enabled when a capable model exists, and can be switched off explicitly.
func resolveFeatureFlags(cfg *GatewayConfig) FeatureFlags {
	hasText, hasImage, hasVision := false, false, false
	for _, m := range cfg.Models {
		if m.SupportsTextOut() && !m.SupportsVision() {
			hasText = true
		}
		if m.SupportsImageOut() {
			hasImage = true
		}
		if m.SupportsVision() {
			hasText = true
			hasVision = true
		}
	}

	return FeatureFlags{
		TextEnabled:       utils.GetEnvBool("TEXT_GENERATION_ENABLED", hasText),
		ImageEnabled:      utils.GetEnvBool("IMAGE_GENERATION_ENABLED", hasImage),
		ScreenshotEnabled: utils.GetEnvBool("SCREENSHOT_TO_CODE_ENABLED", hasVision),
	}
}

// resolveDefaultModels picks per-capability defaults: explicit env override
// first, then the first capable configured model.
func resolveDefaultModels(cfg *GatewayConfig) DefaultModels {
	defaults := DefaultModels{
		Text:   os.Getenv("DEFAULT_TEXT_MODEL"),
		Image:  os.Getenv("DEFAULT_IMAGE_MODEL"),
		Vision: os.Getenv("DEFAULT_VISION_MODEL"),
	}

	for _, m := range cfg.Models {
		if defaults.Text == "" && m.SupportsTextOut() {
			defaults.Text = m.ID
		}
		if defaults.Image == "" && m.SupportsImageOut() {
			defaults.Image = m.ID
		}
		if defaults.Vision == "" && m.SupportsVision() {
			defaults.Vision = m.ID
		}
	}

	return defaults
}
