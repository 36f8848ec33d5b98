package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port == "" {
		t.Error("expected default port")
	}
	if cfg.ConversionRate != 1000 {
		t.Errorf("expected default conversion rate 1000, got %d", cfg.ConversionRate)
	}
	if cfg.WelcomeSpins != 10 {
		t.Errorf("expected default welcome spins 10, got %d", cfg.WelcomeSpins)
	}
	if cfg.DailySpinCap != 50 {
		t.Errorf("expected default daily spin cap 50, got %d", cfg.DailySpinCap)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{ConversionRate: 0, DailySpinCap: 50}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero conversion rate")
	}
	cfg = &Config{ConversionRate: 1000, DailySpinCap: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero spin cap")
	}
	cfg = &Config{ConversionRate: 1000, DailySpinCap: 50, WelcomeSpins: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative welcome spins")
	}
}
