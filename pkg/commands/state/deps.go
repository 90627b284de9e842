// Package state provides CLI commands to inspect the deployed core contracts.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/abacus-network/abacus-deploy/deployment"
	"github.com/abacus-network/abacus-deploy/pkg/logger"
)

// EnvironmentLoaderFunc loads a deployment environment.
type EnvironmentLoaderFunc func(
	ctx context.Context, cfg deployment.EnvironmentConfig, lggr logger.Logger,
) (*deployment.Environment, error)

// ViewStateFunc reads the state of an environment. The result is rendered as JSON.
type ViewStateFunc func(ctx context.Context, env *deployment.Environment) (any, error)

// StateSaverFunc writes the rendered state to outputPath.
type StateSaverFunc func(outputPath string, state []byte) error

// defaultViewState reads the core contracts of every chain.
func defaultViewState(ctx context.Context, env *deployment.Environment) (any, error) {
	return env.View(ctx)
}

// defaultStateSaver writes the state file.
func defaultStateSaver(outputPath string, state []byte) error {
	if err := os.WriteFile(outputPath, state, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Deps holds the injectable dependencies for state commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// EnvironmentLoader loads a deployment environment.
	// Default: deployment.LoadEnvironment
	EnvironmentLoader EnvironmentLoaderFunc

	// StateSaver saves the generated state when an output path is given.
	// Default: os.WriteFile
	StateSaver StateSaverFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.EnvironmentLoader == nil {
		d.EnvironmentLoader = deployment.LoadEnvironment
	}
	if d.StateSaver == nil {
		d.StateSaver = defaultStateSaver
	}
}

// marshalState renders state as indented JSON with a trailing newline.
func marshalState(state any) ([]byte, error) {
	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	return append(out, '\n'), nil
}
