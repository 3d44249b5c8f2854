package config

import (
	"os"
	"path/filepath"
	"testing"

	"radiantbloom/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "salon.db"
api:
  auth:
    api_keys:
      - key: "secret"
        name: "backoffice"
        permissions: ["read", "write"]
services:
  - slug: "glow-facial"
    name: "Glow Facial"
    duration_minutes: 75
    price_cents: 9000
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "salon.db" {
		t.Errorf("expected database path salon.db, got %s", cfg.Database.Path)
	}

	if len(cfg.Services) != 1 || cfg.Services[0].Slug != "glow-facial" {
		t.Errorf("expected 1 service with slug glow-facial")
	}

	// defaults
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default http port 8080, got %d", cfg.API.HTTP.Port)
	}
	if !cfg.API.Auth.IsEnabled() {
		t.Errorf("expected auth enabled by default")
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.Worker.BatchSize != 10 {
		t.Errorf("expected default worker batch size 10, got %d", cfg.Worker.BatchSize)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SALON_DB_PATH", "from-env.db")

	yamlContent := `
database:
  path: "${SALON_DB_PATH}"
api:
  auth:
    enabled: false
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "from-env.db" {
		t.Errorf("expected env-expanded path, got %s", cfg.Database.Path)
	}

	// Явное enabled:false переживает загрузку и не требует ключей.
	if cfg.API.Auth.IsEnabled() {
		t.Errorf("expected auth disabled by explicit flag")
	}
}

func TestValidateConfig(t *testing.T) {
	enabled := func(v bool) *bool { return &v }

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "salon.db"},
				API: APIConfig{Auth: APIAuthConfig{
					Enabled: enabled(true),
					APIKeys: []APIClientKey{{Key: "k", Name: "n"}},
				}},
				Services: []models.Service{{Slug: "facial", Name: "Facial", DurationMinutes: 60}},
			},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "auth without keys",
			cfg: Config{
				Database: DatabaseConfig{Path: "salon.db"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: enabled(true)}},
			},
			wantErr: true,
		},
		{
			name: "duplicate service slug",
			cfg: Config{
				Database: DatabaseConfig{Path: "salon.db"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: enabled(false)}},
				Services: []models.Service{
					{Slug: "facial", Name: "A", DurationMinutes: 60},
					{Slug: "facial", Name: "B", DurationMinutes: 30},
				},
			},
			wantErr: true,
		},
		{
			name: "zero duration service",
			cfg: Config{
				Database: DatabaseConfig{Path: "salon.db"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: enabled(false)}},
				Services: []models.Service{{Slug: "facial", Name: "A"}},
			},
			wantErr: true,
		},
		{
			name: "backup without storage path",
			cfg: Config{
				Database: DatabaseConfig{Path: "salon.db"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: enabled(false)}},
				Backup:   BackupConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "spreadsheet without credentials",
			cfg: Config{
				Database: DatabaseConfig{Path: "salon.db"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: enabled(false)}},
				Google:   GoogleConfig{BookingSpreadSheetID: "sheet-id"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
