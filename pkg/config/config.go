package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/drone/envsubst"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/grafana/readelf/pkg/elfreader"
)

// Config is the content of the readelf configuration file. Every field can
// also be set with the flag named after its path, e.g.
// --limits.max-section-headers.
type Config struct {
	Limits Limits `yaml:"limits"`
	Output Output `yaml:"output"`
	Cache  Cache  `yaml:"cache"`
	Batch  Batch  `yaml:"batch"`
}

type Limits struct {
	MaxSectionHeaders  int      `yaml:"max_section_headers" def:"65535" desc:"Largest section header count accepted from a file."`
	MaxProgramHeaders  int      `yaml:"max_program_headers" def:"65535" desc:"Largest program header count accepted from a file."`
	MaxStringTableSize ByteSize `yaml:"max_string_table_size" def:"16MiB" desc:"Largest section name string table read from a file."`
	MaxInputSize       ByteSize `yaml:"max_input_size" def:"1GiB" desc:"Largest input accepted, measured after decompression."`
}

type Output struct {
	Format string `yaml:"format" def:"table" enum:"table|json|yaml" desc:"Output format: table, json or yaml."`
	Color  string `yaml:"color" def:"auto" enum:"auto|always|never" desc:"Colorize headings: auto, always or never."`
	Wide   bool   `yaml:"wide" def:"false" desc:"Do not truncate long section names."`
}

type Cache struct {
	Size int `yaml:"size" def:"128" desc:"Number of parsed files kept in memory. 0 disables the cache."`
}

type Batch struct {
	Concurrency int `yaml:"concurrency" def:"4" desc:"Number of files loaded in parallel."`
}

// ByteSize is a size in bytes written in human form, e.g. "16MiB" or "64 kB".
type ByteSize uint64

func (b *ByteSize) Set(s string) error {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}
	*b = ByteSize(v)
	return nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return b.Set(s)
}

func (b ByteSize) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// Default returns the configuration described by the def tags.
func Default() Config {
	var c Config
	if err := setDefaults(&c); err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a YAML document on top of the defaults. With expandEnv set,
// ${VAR} references are replaced by environment values first.
func Parse(data []byte, expandEnv bool) (*Config, error) {
	if expandEnv {
		s, err := envsubst.EvalEnv(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to expand environment variables: %w", err)
		}
		data = []byte(s)
	}

	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse readelf config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid readelf config: %w", err)
	}
	return &c, nil
}

// Load reads and parses the configuration file at path.
func Load(fs afero.Fs, path string, expandEnv bool) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(data, expandEnv)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Limits.MaxSectionHeaders < 1 || c.Limits.MaxSectionHeaders > 0xffff {
		return fmt.Errorf("limits.max_section_headers must be between 1 and 65535, got %d", c.Limits.MaxSectionHeaders)
	}
	if c.Limits.MaxProgramHeaders < 1 || c.Limits.MaxProgramHeaders > 0xffff {
		return fmt.Errorf("limits.max_program_headers must be between 1 and 65535, got %d", c.Limits.MaxProgramHeaders)
	}
	if c.Limits.MaxStringTableSize == 0 {
		return fmt.Errorf("limits.max_string_table_size must not be zero")
	}
	if c.Limits.MaxInputSize == 0 {
		return fmt.Errorf("limits.max_input_size must not be zero")
	}

	switch c.Output.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output.format '%s', must be 'table', 'json' or 'yaml'", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("unsupported output.color '%s', must be 'auto', 'always' or 'never'", c.Output.Color)
	}

	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

// ElfLimits converts the limits section into reader limits.
func (c *Config) ElfLimits() elfreader.Limits {
	return elfreader.Limits{
		MaxSectionHeaders:  c.Limits.MaxSectionHeaders,
		MaxProgramHeaders:  c.Limits.MaxProgramHeaders,
		MaxStringTableSize: uint64(c.Limits.MaxStringTableSize),
	}
}
