package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// config mirrors the serve flags; a YAML file can set any of them and
// flags given on the command line win.
type config struct {
	Manifest struct {
		Root  string `yaml:"root"`
		Watch bool   `yaml:"watch"`
	} `yaml:"manifest"`
	Server struct {
		Addr         string   `yaml:"addr"`
		Pretty       bool     `yaml:"pretty"`
		Timeout      duration `yaml:"timeout"`
		MaxBodyBytes int64    `yaml:"max_body_bytes"`
		MaxDepth     int      `yaml:"max_depth"`
		CORSOrigins  []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Otel struct {
		Endpoint string `yaml:"endpoint"`
		Service  string `yaml:"service"`
	} `yaml:"otel"`
}

// duration wraps time.Duration so YAML accepts "10s" style values.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

func defaultConfig() config {
	var cfg config
	cfg.Manifest.Root = "."
	cfg.Manifest.Watch = true
	cfg.Server.Addr = ":8080"
	cfg.Server.Timeout = duration(10 * time.Second)
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Server.MaxDepth = 64
	cfg.Log.Level = "info"
	cfg.Otel.Service = "shapecast"
	return cfg
}

func loadConfig(file string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(file)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
