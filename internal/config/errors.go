package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks a configuration that loaded but cannot be used.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidWeights narrows ErrInvalidConfig to the signal weights map.
	ErrInvalidWeights = fmt.Errorf("%w: signal weights", ErrInvalidConfig)
	// ErrLoadConfig marks an unreadable config file or environment.
	ErrLoadConfig = errors.New("load config failed")
)
