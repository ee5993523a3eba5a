// Package config loads and saves the cmd/trctrace CLI's persistent
// preferences: default pass/step counts and command aliases, YAML-backed
// under the user's home directory.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".trctrace"
	configFile string = "config.yml"
)

// Config defines every option available through the config file.
type Config struct {
	// Aliases maps a command name to extra names for it. It is loaded
	// from the file, but trctrace does not register these aliases.
	Aliases map[string][]string `yaml:"aliases"`

	// DefaultPassCount is used by "trace" when no explicit passcount is
	// set afterward.
	DefaultPassCount uint64 `yaml:"default-pass-count"`

	// DefaultStepCount is loaded from the file but not applied: a
	// "while-stepping" line without an operand always parses as unbounded
	// (-1).
	DefaultStepCount int `yaml:"default-step-count"`

	// TraceWireLog is loaded from the file but not applied: wire logging
	// is enabled only by "--log --log-output=tracewire".
	TraceWireLog bool `yaml:"trace-wire-log"`
}

// LoadConfig attempts to populate a Config from the config.yml file,
// creating a default one on first run.
func LoadConfig() *Config {
	if err := createConfigPath(); err != nil {
		fmt.Printf("Could not create config directory: %v.\n", err)
		return &Config{}
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.\n", err)
		return &Config{}
	}

	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			fmt.Printf("Error creating default config file: %v\n", err)
			return &Config{}
		}
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		fmt.Printf("Unable to read config data: %v.\n", err)
		return &Config{}
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		fmt.Printf("Unable to decode config file: %v.\n", err)
		return &Config{}
	}
	return &c
}

// SaveConfig marshals and saves conf to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}
	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(out)
	return err
}

func createDefaultConfig(p string) (*os.File, error) {
	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	if err := writeDefaultConfig(f); err != nil {
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	return f, nil
}

func writeDefaultConfig(f *os.File) error {
	_, err := f.WriteString(`# Configuration file for trctrace.
#
# Command aliases (read, but not registered by trctrace).
aliases:
  # command: ["alias1", "alias2"]

# Default pass count for newly defined tracepoints; 0 means unlimited.
default-pass-count: 0

# Default while-stepping count (read, but not applied: a bare
# while-stepping is always "unbounded, target decides").
default-step-count: 0

# Wire logging switch (read, but not applied; use --log
# --log-output=tracewire).
# trace-wire-log: true
`)
	return err
}

func createConfigPath() error {
	p, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0700)
}

// GetConfigFilePath returns the full path to the named config file under
// the user's home directory.
func GetConfigFilePath(file string) (string, error) {
	userHomeDir := "."
	if usr, err := user.Current(); err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, configDir, file), nil
}
