// Pipeline configuration, loaded from a TOML file with environment
// overrides for paths that differ between deployments.

package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/pelletier/go-toml/v2"
)

// Search holds everything needed to invoke the external MSA search tool.
// Field names and defaults follow the tool's own command line.
type Search struct {
	ColabSearchBin string `toml:"colabfold_search_bin"`
	MMseqsBin      string `toml:"mmseqs_bin"`
	DBDir          string `toml:"db_dir"`
	DB1            string `toml:"db1"`
	DB2            string `toml:"db2"`
	DB3            string `toml:"db3"`
	UseEnv         int    `toml:"use_env"`
	Filter         int    `toml:"filter"`
	DBLoadMode     int    `toml:"db_load_mode"`
	Threads        int    `toml:"threads"`
	AddTaxid       bool   `toml:"add_taxid"`
}

type Config struct {
	Search     Search `toml:"search"`
	LedgerPath string `toml:"ledger_path"`
}

// Default returns the stock configuration. Database names track the
// releases the search tool ships profiles for.
func Default() Config {
	return Config{
		Search: Search{
			MMseqsBin:  "mmseqs",
			DB1:        "uniref30_2302_db",
			DB3:        "colabfold_envdb_202108_db",
			UseEnv:     1,
			Filter:     1,
			DBLoadMode: 0,
			Threads:    32,
		},
	}
}

// Load reads a TOML config file over the defaults. Values from the
// MSAPREP_DATA environment (usually via .env) fill unset paths.
func Load(fpath string) (Config, error) {

	cfg := Default()

	raw, err := os.ReadFile(fpath)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", fpath, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// FromEnv builds a configuration without a config file, from environment
// variables alone.
func FromEnv() Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if data_dir := os.Getenv("MSAPREP_DATA"); data_dir != "" {
		if c.Search.DBDir == "" {
			c.Search.DBDir = path.Join(data_dir, "colabfold_db")
		}
		if c.LedgerPath == "" {
			c.LedgerPath = path.Join(data_dir, "db", "msaprep_runs.db")
		}
	}
	if bin := os.Getenv("MSAPREP_COLABSEARCH_BIN"); bin != "" {
		c.Search.ColabSearchBin = bin
	}
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Search.ColabSearchBin == "" {
		return errors.New("config: colabfold_search_bin is not set")
	}
	if c.Search.DBDir == "" {
		return errors.New("config: db_dir is not set")
	}
	if c.Search.Threads <= 0 {
		return errors.New("config: threads must be positive")
	}
	return nil
}
