package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerGetStringDefault(t *testing.T) {
	m := NewManager()
	if got := m.GetString("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	m.Set("present", "value")
	if got := m.GetString("present"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestManagerGetIntCoercesStringAndFloat(t *testing.T) {
	m := NewManager()
	m.Set("from_string", "42")
	m.Set("from_float", 7.0)

	if got := m.GetInt("from_string"); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := m.GetInt("from_float"); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := m.GetInt("missing", 99); got != 99 {
		t.Fatalf("expected default 99, got %d", got)
	}
}

func TestManagerGetBoolVariants(t *testing.T) {
	m := NewManager()
	m.Set("a", "yes")
	m.Set("b", "0")
	m.Set("c", true)

	if !m.GetBool("a") {
		t.Fatalf("expected 'yes' to parse as true")
	}
	if m.GetBool("b") {
		t.Fatalf("expected '0' to parse as false")
	}
	if !m.GetBool("c") {
		t.Fatalf("expected bool true to stay true")
	}
}

func TestManagerWatchFiresOnSet(t *testing.T) {
	m := NewManager()
	done := make(chan string, 1)
	m.Watch("key", func(key string, value interface{}) {
		done <- value.(string)
	})
	m.Set("key", "changed")

	select {
	case v := <-done:
		if v != "changed" {
			t.Fatalf("expected 'changed', got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("watcher callback never fired")
	}
}

func TestManagerLoadFromYAMLNestedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "port: 9090\nmemory:\n  event_pool_size: 50\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	m := NewManager()
	if err := m.LoadFromYAML(path); err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}
	if got := m.GetInt("port"); got != 9090 {
		t.Fatalf("expected port=9090, got %d", got)
	}
	if got := m.GetInt("memory.event_pool_size"); got != 50 {
		t.Fatalf("expected memory.event_pool_size=50, got %d", got)
	}
}

func TestManagerLoadFromEnvStripsPrefixAndLowercases(t *testing.T) {
	t.Setenv("COREKIT_LOG_LEVEL", "debug")

	m := NewManager()
	m.LoadFromEnv("COREKIT")

	if got := m.GetString("log.level"); got != "debug" {
		t.Fatalf("expected log.level=debug, got %q", got)
	}
}

func TestManagerUnmarshalIntoStruct(t *testing.T) {
	m := NewManager()
	m.Set("name", "widget")
	m.Set("count", 5)

	var target struct {
		Name  string `config:"name"`
		Count int    `config:"count"`
	}
	if err := m.Unmarshal("", &target); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if target.Name != "widget" || target.Count != 5 {
		t.Fatalf("unexpected target: %+v", target)
	}
}
