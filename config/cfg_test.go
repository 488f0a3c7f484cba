package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Compiler.DarkMode != DarkModeMedia {
		t.Errorf("DarkMode = %v, want media", cfg.Compiler.DarkMode)
	}
	if cfg.Runtime.Target != "style" {
		t.Errorf("Target = %q, want style", cfg.Runtime.Target)
	}
	if cfg.Bundle.Format != PayloadFormatJson {
		t.Errorf("Format = %v, want json", cfg.Bundle.Format)
	}
	if cfg.Bundle.OutputNameTemplate != "{{ .Name | slug }}_style.go" {
		t.Errorf("OutputNameTemplate was expanded: %q", cfg.Bundle.OutputNameTemplate)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
compiler:
  dark_mode: class
  dark_mode_class: night
  group_pattern: "^group(/.+)?$"
  preserve_variables: ["--brand"]
runtime:
  target: css
  native_style_to_prop:
    color: tintColor
  width: 1024
  height: 768
bundle:
  package: theme
  format: ion
logging:
  console:
    level: debug
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	opts, err := cfg.Compiler.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.DarkModeClass != "night" {
		t.Errorf("DarkModeClass = %q, want night", opts.DarkModeClass)
	}
	if opts.GroupPattern == nil || !opts.GroupPattern.MatchString("group/card") {
		t.Errorf("GroupPattern = %v", opts.GroupPattern)
	}
	if len(opts.PreserveVariables) != 1 || opts.PreserveVariables[0] != "--brand" {
		t.Errorf("PreserveVariables = %v", opts.PreserveVariables)
	}

	env := cfg.Runtime.Environment()
	if env.Width != 1024 || env.Height != 768 {
		t.Errorf("Environment() size = %vx%v", env.Width, env.Height)
	}
	// defaults survive
	if env.Rem != 14 || env.ColorScheme != "light" {
		t.Errorf("Environment() defaults lost: %+v", env)
	}
	out := cfg.Runtime.Output()
	if out.Target != "css" || out.NativeStyleToProp["color"] != "tintColor" {
		t.Errorf("Output() = %+v", out)
	}
	if cfg.Bundle.Package != "theme" || cfg.Bundle.Format != PayloadFormatIon {
		t.Errorf("Bundle = %+v", cfg.Bundle)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\ncompiler:\n  dark_mode: media\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad enum", "version: 1\nbundle:\n  format: xml\n"},
		{"class mode without class", "version: 1\ncompiler:\n  dark_mode: class\n  dark_mode_class: \"\"\n"},
		{"bad variable name", "version: 1\ncompiler:\n  preserve_variables: [brand]\n"},
		{"bad group pattern", "version: 1\ncompiler:\n  group_pattern: \"(\"\n"},
		{"bad color scheme", "version: 1\nruntime:\n  color_scheme: sepia\n"},
		{"zero width", "version: 1\nruntime:\n  width: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}
	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Compiler.DarkMode = DarkModeClass
	cfg.Bundle.Format = PayloadFormatIon

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	// enums are written by name
	if !strings.Contains(string(data), "dark_mode: class") || !strings.Contains(string(data), "format: ion") {
		t.Errorf("Dump() output:\n%s", data)
	}

	cfg2, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Compiler.DarkMode != DarkModeClass || cfg2.Bundle.Format != PayloadFormatIon {
		t.Errorf("enums lost after dump/load: %v %v", cfg2.Compiler.DarkMode, cfg2.Bundle.Format)
	}
}

func TestCompilerConfig_MediaIgnoresClass(t *testing.T) {
	conf := CompilerConfig{DarkMode: DarkModeMedia, DarkModeClass: "dark"}
	opts, err := conf.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.DarkModeClass != "" || opts.GroupPattern != nil {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestParsePayloadFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected PayloadFormat
		ext      string
		wantErr  bool
	}{
		{"json", PayloadFormatJson, ".json", false},
		{"JSON", PayloadFormatJson, ".json", false},
		{"ion", PayloadFormatIon, ".ion", false},
		{"yaml", 0, "", true},
		{"", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePayloadFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected || got.Ext() != tt.ext {
				t.Errorf("ParsePayloadFormat(%q) = %v (%s), want %v (%s)", tt.input, got, got.Ext(), tt.expected, tt.ext)
			}
		})
	}
}

func TestDarkMode_String(t *testing.T) {
	if DarkModeClass.String() != "class" || DarkMode(7).String() != "DarkMode(7)" {
		t.Errorf("unexpected names: %s %s", DarkModeClass, DarkMode(7))
	}
	if !DarkModeMedia.IsValid() || DarkMode(-1).IsValid() {
		t.Error("IsValid() mismatch")
	}
	if names := DarkModeNames(); len(names) != 2 || names[0] != "media" {
		t.Errorf("DarkModeNames() = %v", names)
	}
}
