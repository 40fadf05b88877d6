package specs

import (
	"fmt"
	"io"

	yaml "gopkg.in/yaml.v2"
)

// DispatcherConfig is the YAML-decodable tuning knobs for a dispatcher
// host: how many worker goroutines the pool should keep warm, whether
// thread-local systems are permitted at all, and whether stage/edge
// debug annotation starts enabled.
type DispatcherConfig struct {
	// Workers bounds the pool executor's goroutine count. Zero means
	// "one goroutine per stage member, no pooling" (the default
	// WaitGroupExecutor's behavior).
	Workers int `yaml:"workers"`

	// AllowThreadLocal gates WithThreadLocal: a host embedding specs
	// inside an environment where goroutines may not outlive a single
	// OS thread (certain GUI or GPU bindings) sets this false to make
	// an accidental WithThreadLocal call a build-time error instead of
	// a runtime deadlock.
	AllowThreadLocal bool `yaml:"allow_thread_local"`

	// Debug seeds Dispatcher.SetDebug at construction time.
	Debug bool `yaml:"debug"`
}

// DefaultDispatcherConfig matches the zero-configuration behavior: no
// pool bound, thread-local systems permitted, debug annotation off.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{AllowThreadLocal: true}
}

// LoadDispatcherConfig decodes a DispatcherConfig from r, starting from
// DefaultDispatcherConfig so an omitted field keeps its default rather
// than zeroing out.
func LoadDispatcherConfig(r io.Reader) (*DispatcherConfig, error) {
	cfg := DefaultDispatcherConfig()
	dec := yaml.NewDecoder(r)
	dec.SetStrict(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("specs: decoding dispatcher config: %w", err)
	}
	return &cfg, nil
}

// Build applies cfg to b, returning an error in place of a panic when the
// builder would otherwise violate a config constraint (a WithThreadLocal
// call present while AllowThreadLocal is false).
func (cfg DispatcherConfig) Build(b *DispatcherBuilder) (*Dispatcher, error) {
	if !cfg.AllowThreadLocal {
		for _, n := range b.nodes {
			if n.threadLocal {
				return nil, fmt.Errorf("specs: system %q is thread-local but config disallows thread-local systems", n.name)
			}
		}
	}
	if cfg.Workers > 0 {
		b.WithExecutor(NewBoundedExecutor(cfg.Workers))
	}
	d, err := b.Build()
	if err != nil {
		return nil, err
	}
	d.SetDebug(cfg.Debug)
	return d, nil
}
