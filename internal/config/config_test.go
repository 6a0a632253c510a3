// Package config tests validate config loading behavior.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("writefile: %v", err)
	}
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, "db:\n  path: /tmp/app.db\n")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DB.Path != "/tmp/app.db" {
		t.Fatalf("db path: %q", c.DB.Path)
	}
	if c.Log.Level != "info" || c.HTTP.Port != 8080 || c.Storage.Root != "./static" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.Session.Type != "client" || c.Session.Realm != "static-files-manager" {
		t.Fatalf("session defaults not applied: %+v", c.Session)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	p := writeConfig(t, "http:\n  port: 99999\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected invalid port error")
	}
}

func TestLoadRejectsSessionSeparators(t *testing.T) {
	p := writeConfig(t, "session:\n  type: \"cli:ent\"\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected session type error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := Load(""); err == nil {
		t.Fatalf("expected path required error")
	}
}
