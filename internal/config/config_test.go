package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/tool"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.LintConfigPath() != ".golangci.yaml" {
		t.Fatalf("unexpected lint config %q", c.LintConfigPath())
	}
	if c.CoverageProfile() != "coverage.out" {
		t.Fatalf("unexpected coverage profile %q", c.CoverageProfile())
	}
}

func TestInitWritesParsableDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitInvokerDir(projectDir); err != nil {
		t.Fatalf("InitInvokerDir: %v", err)
	}
	for _, dir := range []string{"bin", "logs"} {
		if info, err := os.Stat(filepath.Join(projectDir, InvokerDir, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s dir: %v", dir, err)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("default config should parse: %v", err)
	}
	if len(c.Project.Tools) != 0 {
		t.Fatalf("default config should not override tools: %+v", c.Project.Tools)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	invokerDir := filepath.Join(projectDir, InvokerDir)
	if err := os.MkdirAll(invokerDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
module: github.com/neoxelox/gilk
lint:
  config: build/golangci.yaml
tools_dir: .cache/tools
tools:
  - name: gotestsum
    version: v1.9.0
    links:
      linux/amd64:
        url: https://example.com/gotestsum.tar.gz
        path: gotestsum
  - name: mockery
    version: 2.20.0
    path: bin/mockery
    tags: [Dev-Only]
`)
	if err := os.WriteFile(filepath.Join(invokerDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.ToolsDir() != filepath.Join(projectDir, ".cache", "tools") {
		t.Fatalf("tools dir not resolved: %s", c.ToolsDir())
	}
	mod, err := c.ModulePath()
	if err != nil || mod != "github.com/neoxelox/gilk" {
		t.Fatalf("ModulePath = %q, %v", mod, err)
	}
	reg, err := c.ToolRegistry()
	if err != nil {
		t.Fatalf("ToolRegistry: %v", err)
	}
	gotestsum, _ := reg.Lookup(tool.Test)
	if gotestsum.Version != "1.9.0" {
		t.Fatalf("override version not applied: %s", gotestsum.Version)
	}
	if gotestsum.Links[tool.LinuxAMD64].URL != "https://example.com/gotestsum.tar.gz" {
		t.Fatalf("override link not applied: %+v", gotestsum.Links)
	}
	mockery, ok := reg.Lookup("mockery")
	if !ok {
		t.Fatalf("expected mockery to be added")
	}
	if mockery.Path != filepath.Join(projectDir, "bin", "mockery") {
		t.Fatalf("mockery path not resolved: %s", mockery.Path)
	}
	if !mockery.RequiredIn(env.Dev) {
		t.Fatalf("mockery tags not normalized: %v", mockery.Tags)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	invokerDir := filepath.Join(projectDir, InvokerDir)
	if err := os.MkdirAll(invokerDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
tools:
  - name: gotestsum
    links:
      linux:
        url: https://example.com/x.tar.gz
        path: gotestsum
`)
	if err := os.WriteFile(filepath.Join(invokerDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewConfig(projectDir); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestModulePathFromGoMod(t *testing.T) {
	projectDir := t.TempDir()
	goMod := "module github.com/neoxelox/gilk\n\ngo 1.19\n"
	if err := os.WriteFile(filepath.Join(projectDir, "go.mod"), []byte(goMod), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	mod, err := c.ModulePath()
	if err != nil {
		t.Fatalf("ModulePath: %v", err)
	}
	if mod != "github.com/neoxelox/gilk" {
		t.Fatalf("ModulePath = %q", mod)
	}
}

func TestSelectEnvironmentPrecedence(t *testing.T) {
	reg := env.Builtin()
	t.Setenv(EnvVar, "ci")
	got, err := SelectEnvironment(reg, "")
	if err != nil || got.Name != "ci" {
		t.Fatalf("env var not honoured: %v %v", got, err)
	}
	got, err = SelectEnvironment(reg, "prod")
	if err != nil || got.Name != "prod" {
		t.Fatalf("flag should win: %v %v", got, err)
	}
	t.Setenv(EnvVar, "")
	got, err = SelectEnvironment(reg, "")
	if err != nil || got.Name != "dev" {
		t.Fatalf("default should be dev: %v %v", got, err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	projectDir := t.TempDir()
	if err := LoadDotEnv(projectDir); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
	t.Setenv(EnvVar, "")
	os.Unsetenv(EnvVar)
	if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte("INVOKER_ENV=prod\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(projectDir); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if os.Getenv(EnvVar) != "prod" {
		t.Fatalf("expected %s=prod, got %q", EnvVar, os.Getenv(EnvVar))
	}
}
