// Package config loads the console's HCL configuration: scrollback and
// history sizes, command definitions, argument lists, theme colors and the
// executor endpoint. Command packs may be pulled in with include.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	gv "github.com/hashicorp/go-version"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/executor"
)

// DefaultFileName is looked up in the working directory when no -config
// flag is given.
const DefaultFileName = "devconsole.hcl"

// File mirrors the top level of a configuration file.
type File struct {
	RequiredVersion string           `hcl:"required_version,optional"`
	Scrollback      int              `hcl:"scrollback,optional"`
	HistorySize     int              `hcl:"history_size,optional"`
	LogFile         string           `hcl:"log_file,optional"`
	ExportDir       string           `hcl:"export_dir,optional"`
	Includes        []string         `hcl:"include,optional"`
	Commands        []CommandBlock   `hcl:"command,block"`
	Arguments       []ArgumentsBlock `hcl:"arguments,block"`
	Theme           *ThemeBlock      `hcl:"theme,block"`
	Executor        *ExecutorBlock   `hcl:"executor,block"`
	Scanner         *ScannerBlock    `hcl:"scanner,block"`
}

// Pack is the content of an included file: only commands and arguments.
type Pack struct {
	Commands  []CommandBlock   `hcl:"command,block"`
	Arguments []ArgumentsBlock `hcl:"arguments,block"`
}

type CommandBlock struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
}

// ArgumentsBlock adds literals to a completion category, e.g.
//
//	arguments "interfaces" { values = ["terminal"] }
type ArgumentsBlock struct {
	Category string   `hcl:"category,label"`
	Values   []string `hcl:"values"`
}

type ThemeBlock struct {
	Colors map[string]string `hcl:"colors,optional"`
}

type ExecutorBlock struct {
	Endpoint  string `hcl:"endpoint,optional"`
	Timeout   string `hcl:"timeout,optional"`
	QueueSize int    `hcl:"queue_size,optional"`
}

type ScannerBlock struct {
	Listen string `hcl:"listen"`
}

// Config is the validated, merged configuration.
type Config struct {
	Path        string
	Scrollback  int
	HistorySize int
	LogFile     string
	ExportDir   string

	// Commands keeps declaration order, main file first, then includes.
	Commands     []string
	Descriptions map[string]string
	Arguments    map[console.CategoryID][]string
	Colors       map[console.Color]string

	Endpoint  string
	Timeout   time.Duration
	QueueSize int

	ScannerListen string
}

// Options controls Load.
type Options struct {
	// AppVersion is matched against required_version.
	AppVersion string
	// CacheDir receives fetched remote includes. Remote includes fail
	// without it.
	CacheDir string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Scrollback:   console.DefaultScrollback,
		HistorySize:  console.DefaultHistorySize,
		ExportDir:    ".",
		Descriptions: map[string]string{},
		Arguments:    map[console.CategoryID][]string{},
		Colors:       map[console.Color]string{},
		Timeout:      executor.DefaultTimeout,
		QueueSize:    executor.DefaultQueueSize,
	}
}

// Decode parses path without resolving includes or validating.
func Decode(path string) (*File, error) {
	var f File
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// Load decodes path, checks required_version, merges includes and validates
// the result. Every validation problem is reported in one error.
func Load(ctx context.Context, path string, opts Options) (*Config, error) {
	f, err := Decode(path)
	if err != nil {
		return nil, err
	}
	if err := CheckRequiredVersion(f.RequiredVersion, opts.AppVersion); err != nil {
		return nil, err
	}

	packs := []Pack{{Commands: f.Commands, Arguments: f.Arguments}}
	if len(f.Includes) > 0 {
		paths, err := FetchIncludes(ctx, filepath.Dir(path), f.Includes, opts.CacheDir)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			var pack Pack
			if err := hclsimple.DecodeFile(p, nil, &pack); err != nil {
				return nil, fmt.Errorf("parse include %s: %w", p, err)
			}
			packs = append(packs, pack)
		}
	}

	cfg, err := build(f, packs)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

func build(f *File, packs []Pack) (*Config, error) {
	cfg := Default()
	var result *multierror.Error

	if f.Scrollback != 0 {
		cfg.Scrollback = f.Scrollback
	}
	if f.HistorySize != 0 {
		cfg.HistorySize = f.HistorySize
	}
	if cfg.Scrollback <= 0 || cfg.Scrollback > console.MaxCapacity {
		result = multierror.Append(result, fmt.Errorf("scrollback must be between 1 and %d, got %d", console.MaxCapacity, cfg.Scrollback))
	}
	if cfg.HistorySize <= 0 || cfg.HistorySize > console.MaxCapacity {
		result = multierror.Append(result, fmt.Errorf("history_size must be between 1 and %d, got %d", console.MaxCapacity, cfg.HistorySize))
	}
	cfg.LogFile = f.LogFile
	if f.ExportDir != "" {
		cfg.ExportDir = f.ExportDir
	}

	seen := map[string]bool{}
	for _, pack := range packs {
		for _, c := range pack.Commands {
			if c.Name == "" {
				result = multierror.Append(result, errors.New("command name must not be empty"))
				continue
			}
			if seen[c.Name] {
				result = multierror.Append(result, fmt.Errorf("command %q declared twice", c.Name))
				continue
			}
			seen[c.Name] = true
			cfg.Commands = append(cfg.Commands, c.Name)
			if c.Description != "" {
				cfg.Descriptions[c.Name] = c.Description
			}
		}
		for _, a := range pack.Arguments {
			cat, ok := console.ParseCategory(a.Category)
			if !ok || cat == console.CategoryNone {
				result = multierror.Append(result, fmt.Errorf("unknown argument category %q", a.Category))
				continue
			}
			cfg.Arguments[cat] = append(cfg.Arguments[cat], a.Values...)
		}
	}

	if f.Theme != nil {
		for name, value := range f.Theme.Colors {
			c, ok := console.ParseColor(name)
			if !ok {
				result = multierror.Append(result, fmt.Errorf("theme: unknown color %q", name))
				continue
			}
			cfg.Colors[c] = value
		}
	}

	if e := f.Executor; e != nil {
		cfg.Endpoint = e.Endpoint
		if e.Timeout != "" {
			d, err := time.ParseDuration(e.Timeout)
			if err != nil || d <= 0 {
				result = multierror.Append(result, fmt.Errorf("executor: invalid timeout %q", e.Timeout))
			} else {
				cfg.Timeout = d
			}
		}
		if e.QueueSize < 0 {
			result = multierror.Append(result, fmt.Errorf("executor: queue_size must not be negative, got %d", e.QueueSize))
		} else if e.QueueSize > 0 {
			cfg.QueueSize = e.QueueSize
		}
	}
	if f.Scanner != nil {
		cfg.ScannerListen = f.Scanner.Listen
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// CheckRequiredVersion fails when current does not satisfy constraint. An
// empty constraint or an empty current version is accepted.
func CheckRequiredVersion(constraint, current string) error {
	if constraint == "" || current == "" {
		return nil
	}
	cs, err := gv.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("required_version %q: %w", constraint, err)
	}
	v, err := gv.NewVersion(current)
	if err != nil {
		return fmt.Errorf("version %q: %w", current, err)
	}
	if !cs.Check(v) {
		return fmt.Errorf("devconsole %s does not satisfy required_version %q", v, constraint)
	}
	return nil
}
