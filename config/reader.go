package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robotloc/visionfusion/logging"
)

// Format is a config file encoding.
type Format int

const (
	// FormatJSON is the default encoding.
	FormatJSON Format = iota
	// FormatYAML is used for .yaml and .yml files.
	FormatYAML
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Read reads a config from the given file, substituting environment variables first.
func Read(ctx context.Context, filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(ctx context.Context, originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	attrs, err := decodeAttributes(r, FormatFromPath(originalPath))
	if err != nil {
		return nil, err
	}

	cfg := Config{ConfigFilePath: originalPath}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &cfg,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config %q", originalPath)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %q", originalPath)
	}
	logger.Debugw("config loaded", "path", originalPath, "period", cfg.Period, "initial_mode", cfg.InitialMode)
	return &cfg, nil
}

func decodeAttributes(r io.Reader, format Format) (map[string]interface{}, error) {
	attrs := map[string]interface{}{}
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&attrs); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "failed to decode config from yaml")
		}
	default:
		if err := json.NewDecoder(r).Decode(&attrs); err != nil {
			return nil, errors.Wrap(err, "failed to decode config from json")
		}
	}
	return attrs, nil
}
