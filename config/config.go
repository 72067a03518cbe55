// Package config loads the small, flat settings surface spec §6
// "Environment" names: a data directory, a fixed page size, buffer
// pool capacity, and WAL/catalog file names.
//
// Shape grounded on the teacher's server/conf.Cfg/NewCfg/Load (an
// ini.v1-backed struct with sensible defaults, read via
// section.Key(name).MustXxx(default)), trimmed to this module's much
// smaller settings surface — no network/session/getty parameters,
// since there is no wire-protocol layer in scope.
package config

import (
	"path/filepath"

	"gopkg.in/ini.v1"
)

// PageSize is fixed per spec §6 "Environment"; it is not configurable.
const PageSize = 4096

const (
	defaultBufferPoolCapacity = 256
	defaultWalFilename        = "toydb.wal"
	defaultCatalogFilename    = "catalog.json"
)

// Config is the resolved runtime configuration for a Database (spec
// §6 "Environment").
type Config struct {
	DataDir            string
	BufferPoolCapacity int
	WalFilename        string
	CatalogFilename    string
}

// Default returns a Config for dataDir with every other setting at its
// documented default.
func Default(dataDir string) Config {
	return Config{
		DataDir:            dataDir,
		BufferPoolCapacity: defaultBufferPoolCapacity,
		WalFilename:        defaultWalFilename,
		CatalogFilename:    defaultCatalogFilename,
	}
}

// Load reads an ini file at path (in the teacher's "[database]" section
// style) layered over Default(dataDir); any key absent from the file
// keeps its default.
func Load(path, dataDir string) (Config, error) {
	cfg := Default(dataDir)

	raw, err := ini.Load(path)
	if err != nil {
		return Config{}, err
	}
	section := raw.Section("database")
	cfg.BufferPoolCapacity = section.Key("buffer_pool_capacity").MustInt(cfg.BufferPoolCapacity)
	cfg.WalFilename = section.Key("wal_filename").MustString(cfg.WalFilename)
	cfg.CatalogFilename = section.Key("catalog_filename").MustString(cfg.CatalogFilename)
	if dir := section.Key("data_dir").MustString(""); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

// WalPath returns the full path to the WAL file under DataDir.
func (c Config) WalPath() string { return filepath.Join(c.DataDir, c.WalFilename) }

// CatalogPath returns the full path to the catalog file under DataDir.
func (c Config) CatalogPath() string { return filepath.Join(c.DataDir, c.CatalogFilename) }
