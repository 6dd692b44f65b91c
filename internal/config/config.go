package config

import (
	"github.com/GerardGarroo/Web-Taxis-Bcn/internal/envconfig"
)

type Config struct {
	Port         string `validate:"required"`
	AppID        string `validate:"required"`
	GCPProjectID string `validate:"required"`
	DataStore    string `validate:"required,oneof=firestore memory"`
	Identity     IdentityConfig
	Firestore    FirestoreConfig
}

// IdentityConfig holds the Identity Toolkit connection parameters.
type IdentityConfig struct {
	APIKey string
	// Endpoint overrides the production API base URL, e.g. to point at the
	// Firebase Auth emulator.
	Endpoint string
	// BootstrapToken is an optional custom token redeemed once at startup.
	BootstrapToken string
}

type FirestoreConfig struct {
	EmulatorHost string
}

func Load() (Config, error) {
	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		AppID:        envconfig.Get("APP_ID", "default-app-id"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", "taxis-bcn-dev"),
		DataStore:    envconfig.Get("DATASTORE", "firestore"),
		Identity: IdentityConfig{
			APIKey:         envconfig.Get("IDENTITY_API_KEY", ""),
			Endpoint:       envconfig.Get("IDENTITY_ENDPOINT", ""),
			BootstrapToken: envconfig.Get("IDENTITY_BOOTSTRAP_TOKEN", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
	}
	return cfg, envconfig.Validate(cfg)
}
