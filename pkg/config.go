package pkg

import (
	"os"
	"time"

	"github.com/ManouchehrRasoulli/rfspoll/internal"
	"gopkg.in/yaml.v3"
)

const (
	defaultTick = 100 * time.Millisecond
)

type Config struct {
	Path       string        `yaml:"path"`
	Backend    string        `yaml:"backend"`
	Tick       time.Duration `yaml:"tick"`
	PairWindow time.Duration `yaml:"pair_window"`
	Index      bool          `yaml:"index"`
}

func ReadConfig(file string) (*Config, error) {
	yfile, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	c := Config{}
	err = yaml.Unmarshal(yfile, &c)
	if err != nil {
		return nil, err
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = internal.DefaultBackend()
	}
	if c.Tick <= 0 {
		c.Tick = defaultTick
	}
	if c.PairWindow <= 0 {
		c.PairWindow = internal.DefaultPairWindow
	}
}
