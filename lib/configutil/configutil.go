// Package configutil loads json5 configuration files with optional
// `.local` overrides, the pattern every tool in this repo uses for its
// settings (alura.json5, telemetry.json5).
package configutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localVariant turns "dir/alura.json5" into "dir/alura.local.json5".
func localVariant(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// readInto unmarshals the file into out when it exists. The boolean
// reports whether the file was actually read.
func readInto[T any](path string, out *T) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json5.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return true, nil
}

// ReadConfig loads <name> and, when present, merges <name-with-.local>
// on top of it, so checked-in defaults can be overridden per machine
// without touching the shared file. Returns fs.ErrNotExist when
// neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var config T

	found, err := readInto(name, &config)
	if err != nil {
		return config, err
	}

	localPath := localVariant(name)
	var local T
	foundLocal, err := readInto(localPath, &local)
	if err != nil {
		return config, err
	}
	if foundLocal {
		err = mergo.Merge(&config, local, mergo.WithOverride)
		if err != nil {
			return config, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !found && !foundLocal {
		return config, fs.ErrNotExist
	}
	return config, nil
}

// ReadRecursively looks for the named config in the working directory
// and then each parent up to the filesystem root, so commands work from
// anywhere inside a project tree.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return zero, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, fs.ErrNotExist
		}
		dir = parent
	}
}
