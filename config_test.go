package specs

import (
	"strings"
	"testing"
)

func TestLoadDispatcherConfigDefaults(t *testing.T) {
	cfg, err := LoadDispatcherConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadDispatcherConfig: %v", err)
	}
	if !cfg.AllowThreadLocal {
		t.Fatal("an empty config should keep the AllowThreadLocal default")
	}
	if cfg.Debug {
		t.Fatal("an empty config should keep Debug false")
	}
}

func TestLoadDispatcherConfigOverrides(t *testing.T) {
	cfg, err := LoadDispatcherConfig(strings.NewReader("workers: 4\nallow_thread_local: false\ndebug: true\n"))
	if err != nil {
		t.Fatalf("LoadDispatcherConfig: %v", err)
	}
	if cfg.Workers != 4 || cfg.AllowThreadLocal || !cfg.Debug {
		t.Fatalf("cfg = %+v, want {Workers:4 AllowThreadLocal:false Debug:true}", cfg)
	}
}

func TestDispatcherConfigRejectsThreadLocalWhenDisallowed(t *testing.T) {
	cfg := DispatcherConfig{AllowThreadLocal: false}
	sys := &intSystem{run: func(*World) {}}
	b := NewDispatcherBuilder().WithThreadLocal(sys, "TL", nil)
	if _, err := cfg.Build(b); err == nil {
		t.Fatal("expected an error building a thread-local system under a config that disallows it")
	}
}

func TestDispatcherConfigAppliesWorkerPool(t *testing.T) {
	cfg := DispatcherConfig{AllowThreadLocal: true, Workers: 2}
	sys := &intSystem{run: func(*World) {}}
	b := NewDispatcherBuilder().With(sys, "A", nil)
	d, err := cfg.Build(b)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := d.exec.(*BoundedExecutor); !ok {
		t.Fatalf("exec = %T, want *BoundedExecutor", d.exec)
	}
}
