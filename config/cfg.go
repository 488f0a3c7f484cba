package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"regexp"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"stylo/apply"
	"stylo/compiler"
	"stylo/registry"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	CompilerConfig struct {
		DarkMode          DarkMode `yaml:"dark_mode" validate:"gte=0"`
		DarkModeClass     string   `yaml:"dark_mode_class" validate:"required_if=DarkMode 1"`
		GroupPattern      string   `yaml:"group_pattern"`
		PreserveVariables []string `yaml:"preserve_variables" validate:"dive,startswith=--"`
	}

	RuntimeConfig struct {
		Target            string            `yaml:"target" validate:"required"`
		NativeStyleToProp map[string]string `yaml:"native_style_to_prop,omitempty" validate:"dive,keys,required,endkeys,required"`
		Width             float64           `yaml:"width" validate:"gt=0"`
		Height            float64           `yaml:"height" validate:"gt=0"`
		PixelRatio        float64           `yaml:"pixel_ratio" validate:"gt=0"`
		FontScale         float64           `yaml:"font_scale" validate:"gt=0"`
		Rem               float64           `yaml:"rem" validate:"gt=0"`
		ColorScheme       string            `yaml:"color_scheme" validate:"oneof=light dark"`
		Dir               string            `yaml:"dir" validate:"oneof=ltr rtl"`
	}

	BundleConfig struct {
		Package            string        `yaml:"package" validate:"required"`
		Format             PayloadFormat `yaml:"format" validate:"gte=0"`
		Extensions         []string      `yaml:"extensions" validate:"min=1,dive,startswith=."`
		OutputNameTemplate string        `yaml:"output_name_template" validate:"required"`
		Cache              CacheConfig   `yaml:"cache"`
	}

	CacheConfig struct {
		Enable bool   `yaml:"enable"`
		Path   string `yaml:"path" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required_if=Enable true"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Compiler  CompilerConfig `yaml:"compiler"`
		Runtime   RuntimeConfig  `yaml:"runtime"`
		Bundle    BundleConfig   `yaml:"bundle"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, expanded by bundler per file
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// checkPatterns makes sure group pattern compiles, validator has no tag for
// that.
func checkPatterns(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok || len(cfg.Compiler.GroupPattern) == 0 {
		return
	}
	if _, err := regexp.Compile(cfg.Compiler.GroupPattern); err != nil {
		sl.ReportError(cfg.Compiler.GroupPattern, "GroupPattern", "group_pattern", "regexp", "")
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkPatterns)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

// Options converts compiler section to compiler options.
func (conf *CompilerConfig) Options() (compiler.Options, error) {
	opts := compiler.Options{
		PreserveVariables: conf.PreserveVariables,
	}
	if conf.DarkMode == DarkModeClass {
		opts.DarkModeClass = conf.DarkModeClass
	}
	if len(conf.GroupPattern) > 0 {
		re, err := regexp.Compile(conf.GroupPattern)
		if err != nil {
			return opts, fmt.Errorf("bad group pattern '%s': %w", conf.GroupPattern, err)
		}
		opts.GroupPattern = re
	}
	return opts, nil
}

// Environment converts runtime section to initial registry environment.
func (conf *RuntimeConfig) Environment() registry.Options {
	return registry.Options{
		Width:       conf.Width,
		Height:      conf.Height,
		PixelRatio:  conf.PixelRatio,
		FontScale:   conf.FontScale,
		Rem:         conf.Rem,
		ColorScheme: conf.ColorScheme,
		Dir:         conf.Dir,
	}
}

// Output converts runtime section to applier output layout.
func (conf *RuntimeConfig) Output() apply.Options {
	return apply.Options{
		Target:            conf.Target,
		NativeStyleToProp: conf.NativeStyleToProp,
	}
}
