/*
Copyright 2021 ICS-FORTH.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the environment of spec.md §6.5 into a typed struct.
package config

import (
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/carv-ics-forth/testwatch/pkg/netutils"
)

// Config is the environment of spec.md §6.5.
type Config struct {
	// ExposedControllerGRPCAddress is advertised to workers as
	// WORKER_CONTROLLER_OPERATOR_URL.
	ExposedControllerGRPCAddress string `mapstructure:"EXPOSED_CONTROLLER_GRPC_ADDRESS"`

	// WorkerDockerImage is the image used for every CronJob's worker container.
	WorkerDockerImage string `mapstructure:"WORKER_DOCKER_IMAGE"`

	// LogLevel is parsed into a zap level by cmd/testwatch-controller's
	// buildZapLogger.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// GRPCBindAddress and HTTPBindAddress are not themselves read from the
	// environment (spec.md §6.5 fixes them at :8080 / :8000) but are kept
	// here, rather than as literals scattered through cmd/, so tests can
	// override them.
	GRPCBindAddress string `mapstructure:"-"`
	HTTPBindAddress string `mapstructure:"-"`
}

const (
	defaultGRPCBindAddress = ":8080"
	defaultHTTPBindAddress = ":8000"
)

// Load reads the process environment into a Config. Required keys missing
// entirely produce an error rather than a silently empty field, since an
// empty WorkerDockerImage would build CronJobs no image could run.
func Load() (*Config, error) {
	raw := map[string]interface{}{
		"EXPOSED_CONTROLLER_GRPC_ADDRESS": os.Getenv("EXPOSED_CONTROLLER_GRPC_ADDRESS"),
		"WORKER_DOCKER_IMAGE":             os.Getenv("WORKER_DOCKER_IMAGE"),
		"LOG_LEVEL":                       os.Getenv("LOG_LEVEL"),
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &cfg})
	if err != nil {
		return nil, errors.Wrap(err, "construct decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "decode environment")
	}

	if strings.TrimSpace(cfg.ExposedControllerGRPCAddress) == "" {
		if discovered, err := netutils.DiscoverGRPCAddress(strings.TrimPrefix(defaultGRPCBindAddress, ":")); err == nil {
			cfg.ExposedControllerGRPCAddress = discovered
		}
	}

	var missing []string
	if strings.TrimSpace(cfg.ExposedControllerGRPCAddress) == "" {
		missing = append(missing, "EXPOSED_CONTROLLER_GRPC_ADDRESS")
	}
	if strings.TrimSpace(cfg.WorkerDockerImage) == "" {
		missing = append(missing, "WORKER_DOCKER_IMAGE")
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.GRPCBindAddress = defaultGRPCBindAddress
	cfg.HTTPBindAddress = defaultHTTPBindAddress

	return &cfg, nil
}
