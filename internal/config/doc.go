// Package config loads reconciler settings: built-in defaults, an optional
// JSON or YAML file, then RECON_* environment overrides.
//
//	cfg, err := config.Load("/etc/reconciler/recon.yaml")
//	if err != nil { ... }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { ... }
//	rt, _ := runtime.Open(runtime.Options{DataDir: config.DefaultDataDir(), Config: cfg})
package config
