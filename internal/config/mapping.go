package config

import (
	"fmt"
	"os"

	"github.com/BartekS5/movies-etl/pkg/models"
)

// LoadMapping reads the optional table override file. An empty path means
// no overrides.
func LoadMapping(filePath string) (*models.TableMapping, error) {
	if filePath == "" {
		return nil, nil
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file '%s': %w", filePath, err)
	}

	mapping, err := models.LoadTableMapping(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping file '%s': %w", filePath, err)
	}

	return mapping, nil
}
