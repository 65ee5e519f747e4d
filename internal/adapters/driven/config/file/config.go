package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/services"
	"github.com/custodia-labs/searchsync/internal/logger"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "searchsync.toml"

// Search engine kinds.
const (
	EngineBleve         = "bleve"
	EngineElasticsearch = "elasticsearch"
	EngineMemory        = "memory"
)

const (
	defaultBlevePath = "data/indices"
	defaultAddress   = "http://localhost:9200"
)

// Config is the parsed configuration file.
type Config struct {
	Search    SearchConfig              `toml:"search"`
	Documents DocumentsConfig           `toml:"documents"`
	Databases map[string]DatabaseConfig `toml:"databases"`
	Indices   []IndexConfig             `toml:"indices"`

	path string
}

// SearchConfig selects and configures the search engine.
type SearchConfig struct {
	Engine            string   `toml:"engine"`
	Path              string   `toml:"path"`
	Addresses         []string `toml:"addresses"`
	Username          string   `toml:"username"`
	Password          string   `toml:"password"`
	Workers           int      `toml:"workers"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

// DocumentsConfig holds defaults of the document command.
type DocumentsConfig struct {
	BatchSize    int    `toml:"batch_size"`
	BatchType    string `toml:"batch_type"`
	RaiseOnError bool   `toml:"raise_on_error"`
}

// DatabaseConfig is one relational database, keyed by alias.
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// IndexConfig registers an index and the models feeding it.
type IndexConfig struct {
	Name     string        `toml:"name"`
	App      string        `toml:"app"`
	Shards   int           `toml:"shards"`
	Replicas int           `toml:"replicas"`
	Models   []ModelConfig `toml:"models"`
}

// ModelConfig maps a table into documents.
type ModelConfig struct {
	Name       string        `toml:"name"`
	Table      string        `toml:"table"`
	PrimaryKey string        `toml:"primary_key"`
	Fields     []FieldConfig `toml:"fields"`
}

// FieldConfig is one projected column.
type FieldConfig struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, expands and validates the configuration at path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: configuration file %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	} else if err == nil {
		logger.Debug("config: loaded environment from %s", envFile)
	}

	cfg, err := Parse(expandEnv(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	cfg.resolvePaths()
	return cfg, nil
}

// Parse decodes a configuration document and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", domain.ErrInvalidInput, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnv replaces ${NAME} references. Bare $NAME is left untouched
// so DSNs and passwords may contain dollar signs.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name := envRef.FindSubmatch(ref)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func (c *Config) applyDefaults() {
	c.Search.Engine = strings.ToLower(strings.TrimSpace(c.Search.Engine))
	if c.Search.Engine == "" {
		c.Search.Engine = EngineBleve
	}
	if c.Search.Engine == EngineBleve && c.Search.Path == "" {
		c.Search.Path = defaultBlevePath
	}
	if c.Search.Engine == EngineElasticsearch && len(c.Search.Addresses) == 0 {
		c.Search.Addresses = []string{defaultAddress}
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = services.DefaultWorkers
	}
	if c.Documents.BatchSize <= 0 {
		c.Documents.BatchSize = domain.DefaultBatchSize
	}
	for i := range c.Indices {
		for j := range c.Indices[i].Models {
			m := &c.Indices[i].Models[j]
			if m.Table == "" {
				m.Table = strings.ToLower(m.Name)
			}
			for k := range m.Fields {
				if m.Fields[k].Type == "" {
					m.Fields[k].Type = string(domain.FieldText)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Search.Engine {
	case EngineBleve, EngineElasticsearch, EngineMemory:
	default:
		return fmt.Errorf("%w: search engine %q (choose from %s, %s, %s)",
			domain.ErrInvalidInput, c.Search.Engine, EngineBleve, EngineElasticsearch, EngineMemory)
	}
	if c.Search.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: search.requests_per_second must not be negative", domain.ErrInvalidInput)
	}
	if _, err := domain.ParseBatchType(c.Documents.BatchType); err != nil {
		return err
	}
	for alias, db := range c.Databases {
		if db.DSN == "" {
			return fmt.Errorf("%w: database %q has no dsn", domain.ErrInvalidInput, alias)
		}
	}
	_, err := c.Registry()
	return err
}

// resolvePaths makes a relative bleve path relative to the config file.
func (c *Config) resolvePaths() {
	if c.Search.Engine != EngineBleve || filepath.IsAbs(c.Search.Path) {
		return
	}
	c.Search.Path = filepath.Join(filepath.Dir(c.path), c.Search.Path)
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Registry builds the index and model registry.
func (c *Config) Registry() (*domain.Registry, error) {
	indices := make([]domain.IndexDefinition, 0, len(c.Indices))
	for _, ic := range c.Indices {
		def := domain.IndexDefinition{
			Name:     ic.Name,
			App:      ic.App,
			Shards:   ic.Shards,
			Replicas: ic.Replicas,
		}
		for _, mc := range ic.Models {
			model := domain.ModelDefinition{
				Name:       mc.Name,
				Table:      mc.Table,
				PrimaryKey: mc.PrimaryKey,
			}
			for _, fc := range mc.Fields {
				model.Fields = append(model.Fields, domain.FieldDefinition{
					Name: fc.Name,
					Type: domain.FieldType(strings.ToLower(fc.Type)),
				})
			}
			def.Models = append(def.Models, model)
		}
		indices = append(indices, def)
	}
	return domain.NewRegistry(indices)
}

// EngineConfig returns the batch engine settings.
func (c *Config) EngineConfig() services.EngineConfig {
	return services.EngineConfig{
		Workers:           c.Search.Workers,
		RequestsPerSecond: c.Search.RequestsPerSecond,
	}
}

// DocumentDefaults returns the document command defaults.
func (c *Config) DocumentDefaults() services.DocumentDefaults {
	batchType, _ := domain.ParseBatchType(c.Documents.BatchType)
	return services.DocumentDefaults{
		BatchSize:    c.Documents.BatchSize,
		BatchType:    batchType,
		RaiseOnError: c.Documents.RaiseOnError,
	}
}
