package config

import (
	"strings"
	"testing"

	"github.com/esgf-us/esg-bridge/internal/domain"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Globus.SearchIndex != DefaultSearchIndex {
		t.Errorf("expected the ORNL index, got %q", cfg.Globus.SearchIndex)
	}
	wantURL := "https://search.api.globus.org/v1/index/" + DefaultSearchIndex + "/search"
	if cfg.Globus.SearchURL != wantURL {
		t.Errorf("expected SearchURL=%q, got %q", wantURL, cfg.Globus.SearchURL)
	}
	if cfg.Globus.AuthURL != "https://auth.globus.org/v2/oauth2/token" {
		t.Errorf("unexpected AuthURL %q", cfg.Globus.AuthURL)
	}
	if cfg.Globus.RequestTimeoutSec != 60 {
		t.Errorf("expected RequestTimeoutSec=60, got %d", cfg.Globus.RequestTimeoutSec)
	}
	if cfg.Globus.FacetSize != domain.DefaultFacetSize {
		t.Errorf("expected FacetSize=%d, got %d", domain.DefaultFacetSize, cfg.Globus.FacetSize)
	}
	if cfg.Cache.TTLSec != 300 {
		t.Errorf("expected TTLSec=300, got %d", cfg.Cache.TTLSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 9090, WriteTimeoutSec: 120},
		Globus: GlobusConfig{
			SearchIndex: "11111111-2222-3333-4444-555555555555",
			SearchURL:   "https://example.org/search",
			FacetSize:   1000,
		},
		Cache: CacheConfig{TTLSec: 60},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Globus.SearchURL != "https://example.org/search" {
		t.Errorf("expected SearchURL override kept, got %q", cfg.Globus.SearchURL)
	}
	if cfg.Globus.FacetSize != 1000 {
		t.Errorf("expected FacetSize=1000, got %d", cfg.Globus.FacetSize)
	}
	if cfg.Cache.TTLSec != 60 {
		t.Errorf("expected TTLSec=60, got %d", cfg.Cache.TTLSec)
	}
}

func TestApplyDefaults_DerivedSearchURL(t *testing.T) {
	cfg := Config{Globus: GlobusConfig{SearchIndex: "11111111-2222-3333-4444-555555555555"}}
	cfg.ApplyDefaults()

	want := "https://search.api.globus.org/v1/index/11111111-2222-3333-4444-555555555555/search"
	if cfg.Globus.SearchURL != want {
		t.Errorf("expected SearchURL=%q, got %q", want, cfg.Globus.SearchURL)
	}
}

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_InvalidSearchIndex(t *testing.T) {
	cfg := validConfig()
	cfg.Globus.SearchIndex = "not-a-uuid"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for non-UUID search index")
	}
	if !strings.Contains(err.Error(), "globus.search_index") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidate_FacetSizeCap(t *testing.T) {
	cfg := validConfig()
	cfg.Globus.FacetSize = domain.DefaultFacetSize + 1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for oversized facet_size")
	}
}

func TestValidate_CredentialsSetTogether(t *testing.T) {
	cfg := validConfig()
	cfg.Globus.ClientID = "id-only"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for client_id without client_secret")
	}

	cfg.Globus.ClientSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with both credentials set: %v", err)
	}

	cfg.Globus.ClientID = ""
	cfg.Globus.ClientSecret = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with no credentials: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ESGBRIDGE_TEST_SECRET", "s3cret")

	in := []byte("client_secret: ${ESGBRIDGE_TEST_SECRET}\nport: ${ESGBRIDGE_TEST_PORT:-8080}\n")
	got := string(expandEnvVars(in))

	want := "client_secret: s3cret\nport: 8080\n"
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}
