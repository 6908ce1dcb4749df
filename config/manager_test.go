package config

import (
	"sort"
	"strings"
	"testing"
	"time"
)

func TestManagerGetters(t *testing.T) {
	m := NewManager()
	m.Set("name", "evloop")
	m.Set("count", float64(3))
	m.Set("text.count", "12")
	m.Set("wait", "250ms")

	if got := m.GetString("name"); got != "evloop" {
		t.Errorf("expected evloop, got %q", got)
	}
	if got := m.GetString("missing", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := m.GetInt("count"); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := m.GetInt("text.count"); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
	if got := m.GetInt("name", 9); got != 9 {
		t.Errorf("expected default for non-numeric value, got %d", got)
	}
	if got := m.GetDuration("wait"); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", got)
	}

	keys := m.Keys()
	sort.Strings(keys)
	if strings.Join(keys, ",") != "count,name,text.count,wait" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestManagerLoadFromEnv(t *testing.T) {
	t.Setenv("EVLOOP_MAX_EVENTS", "128")
	t.Setenv("EVLOOPX_IGNORED", "1")

	m := NewManager()
	m.LoadFromEnv("EVLOOP")

	if got := m.GetInt("max.events"); got != 128 {
		t.Errorf("expected 128, got %d", got)
	}
	if _, ok := m.Get("ignored"); ok {
		t.Error("expected variables without the exact prefix to be skipped")
	}
}

func TestManagerUnmarshal(t *testing.T) {
	type target struct {
		Name    string
		Size    int           `config:"size"`
		Wait    time.Duration `config:"wait"`
		Enabled bool          `config:"on"`
		hidden  int
	}

	m := NewManager()
	m.Set("srv.name", 42.0)
	m.Set("srv.size", float64(64))
	m.Set("srv.wait", float64(time.Second))
	m.Set("srv.on", "yes")
	m.Set("srv.hidden", 1)

	var got target
	if err := m.Unmarshal("srv", &got); err != nil {
		t.Fatal(err)
	}
	want := target{Name: "42", Size: 64, Wait: time.Second, Enabled: true}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if err := m.Unmarshal("srv", got); err == nil {
		t.Error("expected error for non-pointer target")
	}
}
