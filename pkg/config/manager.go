package config

import (
	"fmt"
	"os"
	"strconv"
)

// Manager provides configuration management functionality
type Manager interface {
	GetString(key string) (string, error)
	GetStringWithDefault(key, defaultValue string) string
	GetInt(key string) (int, error)
	GetBool(key string) (bool, error)
}

// DefaultManager reads configuration from the process environment
type DefaultManager struct {
}

// NewManager creates a new default config manager
func NewManager() Manager {
	return &DefaultManager{}
}

// GetString gets a configuration value by key, returns error if not found
func (m *DefaultManager) GetString(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("configuration key %s not found", key)
	}
	return value, nil
}

// GetStringWithDefault gets a configuration value by key, returns default if not found
func (m *DefaultManager) GetStringWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetInt gets an integer configuration value by key, returns error if not found or invalid
func (m *DefaultManager) GetInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("configuration key %s not found", key)
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("configuration key %s has invalid integer value: %s", key, value)
	}
	return intValue, nil
}

// GetBool gets a boolean configuration value by key, returns error if not found or invalid
func (m *DefaultManager) GetBool(key string) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return false, fmt.Errorf("configuration key %s not found", key)
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("configuration key %s has invalid boolean value: %s", key, value)
	}
	return boolValue, nil
}

