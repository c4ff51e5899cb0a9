package configio

import (
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Load parses a Config from r.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFile opens path and parses it as a Config.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func (c *Config) applyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
	if c.Channels == 0 {
		c.Channels = 2
	}
	if c.MaxBlock == 0 {
		c.MaxBlock = 1024
	}
	if c.MixGain == 0 {
		c.MixGain = 100
	}

	for i := range c.Racks {
		if c.Racks[i].ID == "" {
			c.Racks[i].ID = uuid.NewString()
		}
		for j := range c.Racks[i].Nodes {
			if c.Racks[i].Nodes[j].ID == "" {
				c.Racks[i].Nodes[j].ID = uuid.NewString()
			}
		}
	}
	for i := range c.Buses {
		if c.Buses[i].ID == "" {
			c.Buses[i].ID = uuid.NewString()
		}
		for j := range c.Buses[i].Inserts {
			if c.Buses[i].Inserts[j].ID == "" {
				c.Buses[i].Inserts[j].ID = uuid.NewString()
			}
		}
	}
}
