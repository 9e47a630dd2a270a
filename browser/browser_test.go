package browser

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()

	if cfg.Headless == nil || !*cfg.Headless {
		t.Error("default headless should be true")
	}
	if cfg.TabTimeout != 30*time.Second {
		t.Errorf("tab timeout: got %v, want 30s", cfg.TabTimeout)
	}
	if cfg.Logger == nil {
		t.Error("logger default missing")
	}

	// An explicit false survives defaulting.
	f := false
	cfg = Config{Headless: &f}
	cfg.defaults()
	if *cfg.Headless {
		t.Error("explicit headless=false overridden")
	}
}

func TestShouldBlock(t *testing.T) {
	blockSet := map[string]bool{"images": true, "fonts": true, "script": true}

	cases := []struct {
		resType string
		want    bool
	}{
		{"Image", true},
		{"Font", true},
		{"Media", false},
		{"Stylesheet", false},
		{"Script", true}, // non-mapped types match directly, lowercased
		{"Document", false},
	}
	for _, tc := range cases {
		if got := shouldBlock(blockSet, tc.resType); got != tc.want {
			t.Errorf("shouldBlock(%q): got %v, want %v", tc.resType, got, tc.want)
		}
	}
}

func TestSheetRules(t *testing.T) {
	broken := &Sheet{err: errors.New("SecurityError")}
	if _, err := broken.Rules(); err == nil {
		t.Error("broken sheet should fail Rules")
	}

	ok := &Sheet{}
	rules, err := ok.Rules()
	if err != nil || rules != nil {
		t.Errorf("empty sheet: got %v/%v", rules, err)
	}
}

func TestManagerLifecycleGuards(t *testing.T) {
	m := NewManager(Config{})
	if m.Browser() != nil {
		t.Error("browser before start should be nil")
	}
	if _, err := m.Open(context.Background(), "http://example.com"); err == nil {
		t.Error("open before start should fail")
	}
	if err := m.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("start after close should fail")
	}
}
