package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"labportal/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("LABPORTAL_ADMIN_TOKEN", "secret")
	yamlContent := `
database:
  path: "test.db"
api:
  enabled: true
  auth:
    enabled: true
    tokens:
      - key: "${LABPORTAL_ADMIN_TOKEN}"
        name: "admin"
booking:
  timezone: "UTC"
  min_lab_duration: 30m
  rate_limit:
    attempts: 3
    window: 10m
items:
  - id: "L1"
    title: "Wet lab"
    type: "lab"
    price_rate: 25
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if got := cfg.API.Auth.Tokens[0].Key; got != "secret" {
		t.Errorf("expected token expanded from env, got %q", got)
	}
	if cfg.Booking.MinLabDuration != 30*time.Minute {
		t.Errorf("expected min lab duration 30m, got %s", cfg.Booking.MinLabDuration)
	}
	if cfg.Booking.RateLimit.Attempts != 3 || cfg.Booking.RateLimit.Window != 10*time.Minute {
		t.Errorf("unexpected rate limit %+v", cfg.Booking.RateLimit)
	}
	if len(cfg.Items) != 1 || cfg.Items[0].Type != models.ItemTypeLab {
		t.Errorf("expected 1 lab item, got %+v", cfg.Items)
	}
	if cfg.Booking.Location().String() != "UTC" {
		t.Errorf("expected UTC location, got %s", cfg.Booking.Location())
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Items:    []models.Item{{ID: "L1", Title: "Lab", Type: models.ItemTypeLab}},
			},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "auth without tokens",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: true}},
			},
			wantErr: true,
		},
		{
			name: "unknown timezone",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{Timezone: "Mars/Olympus"},
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

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Booking.OpenTime != "09:00" || cfg.Booking.CloseTime != "18:00" {
		t.Errorf("unexpected business hours %s-%s", cfg.Booking.OpenTime, cfg.Booking.CloseTime)
	}
	if cfg.Booking.RateLimit.Attempts != 5 || cfg.Booking.RateLimit.Window != 15*time.Minute {
		t.Errorf("unexpected rate limit defaults %+v", cfg.Booking.RateLimit)
	}
	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.API.Auth.HeaderToken != "x-admin-token" {
		t.Errorf("expected default token header, got %s", cfg.API.Auth.HeaderToken)
	}
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []models.Item
		wantErr bool
	}{
		{"valid items", []models.Item{{ID: "L1", Type: models.ItemTypeLab}, {ID: "E1", Type: models.ItemTypeEquipment}}, false},
		{"duplicate id", []models.Item{{ID: "L1", Type: models.ItemTypeLab}, {ID: "L1", Type: models.ItemTypeLab}}, true},
		{"empty id", []models.Item{{Title: "Lab", Type: models.ItemTypeLab}}, true},
		{"unknown type", []models.Item{{ID: "R1", Type: "room"}}, true},
		{"negative rate", []models.Item{{ID: "E1", Type: models.ItemTypeEquipment, PriceRate: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItems() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
