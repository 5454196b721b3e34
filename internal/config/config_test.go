package config

import (
	"reflect"
	"testing"

	"meshalias/internal"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MESH_CATEGORY_MARKER", "C")
	t.Setenv("MESH_ALIAS_POLICY", "")
	t.Setenv("ALIAS_FIELDS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AliasPolicy != internal.AliasPolicyStrict {
		t.Fatalf("policy=%q", cfg.AliasPolicy)
	}
	if !reflect.DeepEqual(cfg.AliasFields, []string{"alias", "term"}) {
		t.Fatalf("fields=%v", cfg.AliasFields)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MESH_ALIAS_POLICY", " Skip ")
	t.Setenv("MESH_CATEGORY_MARKER", "F03")
	t.Setenv("MESH_RATE_LIMIT_RPS", "not-a-number")
	t.Setenv("ALIAS_FIELDS", "synonym, canonical")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AliasPolicy != internal.AliasPolicySkip || cfg.CategoryMarker != "F03" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.RateLimitRPS != 2 {
		t.Fatalf("rps=%d", cfg.RateLimitRPS)
	}
	if !reflect.DeepEqual(cfg.AliasFields, []string{"synonym", "canonical"}) {
		t.Fatalf("fields=%v", cfg.AliasFields)
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	t.Setenv("MESH_ALIAS_POLICY", "lenient")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}
