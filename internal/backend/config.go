package backend

import (
	"errors"
	"fmt"
	"strings"

	"cuentas/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := Type(strings.ToLower(strings.TrimSpace(appConfig.DataBackend)))
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:               t,
		SQLiteDBPath:       appConfig.SQLiteDBPath,
		MemorySeedFile:     appConfig.MemorySeedFile,
		AWSRegion:          appConfig.AWSRegion,
		AWSAccessKeyID:     appConfig.AWSAccessKeyID,
		AWSSecretAccessKey: appConfig.AWSSecretAccessKey,
		DynamoDBEndpoint:   appConfig.DynamoDBEndpoint,
		DynamoDBPrefix:     appConfig.DynamoDBPrefix,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case DynamoDB:
		if c.AWSRegion == "" && c.DynamoDBEndpoint == "" {
			return errors.New("AWS region or DynamoDB endpoint is required for dynamodb backend")
		}
		if (c.AWSAccessKeyID == "") != (c.AWSSecretAccessKey == "") {
			return errors.New("AWS access key id and secret must be set together")
		}
	case Memory:
		// A missing seed file simply starts empty.
	}

	return nil
}

// TypeStrings returns all valid backend type strings
func TypeStrings() []string {
	return []string{SQLite.String(), Memory.String(), DynamoDB.String()}
}
