package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ImageConfig struct {
		Width  int       `yaml:"width" validate:"min=1,max=8192"`
		Height int       `yaml:"height" validate:"min=1,max=8192"`
		Format OutputFmt `yaml:"format" validate:"oneof=0 1"`
		Emoji  EmojiType `yaml:"emoji" validate:"gte=0"`
		Debug  bool      `yaml:"debug"`
		// Headers are added to every produced response, they win over
		// computed ones.
		Headers map[string]string `yaml:"headers,omitempty"`
	}

	GoogleFontConfig struct {
		Family string    `yaml:"family" validate:"required"`
		Weight int       `yaml:"weight,omitempty" validate:"omitempty,min=100,max=900"`
		Style  FontStyle `yaml:"style,omitempty"`
		Text   string    `yaml:"text,omitempty"`
	}

	FontsConfig struct {
		Dir    string             `yaml:"dir,omitempty"`
		Bundle string             `yaml:"bundle,omitempty" sanitize:"assure_file_access"`
		Google []GoogleFontConfig `yaml:"google,omitempty" validate:"dive"`
	}

	RedisConfig struct {
		Addr     string       `yaml:"addr"`
		Password SecretString `yaml:"password,omitempty"`
		DB       int          `yaml:"db" validate:"gte=0"`
		Prefix   string       `yaml:"prefix"`
	}

	CacheConfig struct {
		Kind       CacheKind     `yaml:"kind" validate:"gte=0"`
		Dir        string        `yaml:"dir,omitempty"`
		TTL        time.Duration `yaml:"ttl" validate:"gte=0"`
		MaxEntries int           `yaml:"max_entries" validate:"gte=0"`
		Redis      RedisConfig   `yaml:"redis"`
	}

	ServerConfig struct {
		Listen        string        `yaml:"listen" validate:"required"`
		ReadTimeout   time.Duration `yaml:"read_timeout" validate:"gte=0"`
		WriteTimeout  time.Duration `yaml:"write_timeout" validate:"gte=0"`
		RenderTimeout time.Duration `yaml:"render_timeout" validate:"gte=0"`
		MaxBody       int64         `yaml:"max_body" validate:"gt=0"`
	}

	RenderConfig struct {
		OutputNameTemplate    string        `yaml:"output_name_template"`
		FileNameTransliterate bool          `yaml:"file_name_transliterate"`
		MinifySVG             bool          `yaml:"minify_svg"`
		FetchTimeout          time.Duration `yaml:"fetch_timeout" validate:"gte=0"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Image     ImageConfig    `yaml:"image"`
		Fonts     FontsConfig    `yaml:"fonts"`
		Cache     CacheConfig    `yaml:"cache"`
		Server    ServerConfig   `yaml:"server"`
		Render    RenderConfig   `yaml:"render"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

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
		if err := gencfg.Validate(cfg); err != nil {
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
