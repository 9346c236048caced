package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidateYAMLContent_ExampleIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(ExampleYAML()))
	if err != nil {
		t.Fatalf("expected example config to validate: %v", err)
	}
	if cfg.API.Timeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Import.Mode != "insert" {
		t.Fatalf("expected insert mode, got %q", cfg.Import.Mode)
	}
	if len(cfg.Export.Formats) != 1 || cfg.Export.Formats[0] != "csv" {
		t.Fatalf("unexpected export formats: %v", cfg.Export.Formats)
	}
}

func TestValidateYAMLContent_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(`api:
  base_url: "https://admin.example.edu/api"
`))
	if err != nil {
		t.Fatalf("expected minimal config to validate: %v", err)
	}
	if cfg.Storage.DB != "./rosterload.db" || cfg.Export.Dir != "." {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.API.Timeout != 60*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.API.Timeout)
	}
}

func TestValidateYAMLContent_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing base url",
			content: "import:\n  mode: insert\n",
			want:    "BaseURL",
		},
		{
			name:    "invalid base url",
			content: "api:\n  base_url: \"not a url\"\n",
			want:    "BaseURL",
		},
		{
			name:    "unknown mode",
			content: "api:\n  base_url: \"https://a.example\"\nimport:\n  mode: replace\n",
			want:    "Mode",
		},
		{
			name:    "upsert without primary key",
			content: "api:\n  base_url: \"https://a.example\"\nimport:\n  mode: upsert\n",
			want:    "primary_key is required",
		},
		{
			name:    "primary key outside candidates",
			content: "api:\n  base_url: \"https://a.example\"\nimport:\n  mode: upsert\n  primary_key: name\n",
			want:    "not supported",
		},
		{
			name:    "unknown export format",
			content: "api:\n  base_url: \"https://a.example\"\nexport:\n  formats: [pdf]\n",
			want:    "Formats",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ValidateYAMLContent([]byte(tc.content))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateYAMLContent_NormalizesCase(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(`api:
  base_url: "https://a.example"
import:
  mode: UPSERT
  primary_key: " USN "
export:
  formats: [CSV, Excel]
`))
	if err != nil {
		t.Fatalf("expected config to validate: %v", err)
	}
	if cfg.Import.Mode != "upsert" || cfg.Import.PrimaryKey != "usn" {
		t.Fatalf("unexpected import config: %+v", cfg.Import)
	}
	if cfg.Export.Formats[1] != "excel" {
		t.Fatalf("unexpected export formats: %v", cfg.Export.Formats)
	}
}
