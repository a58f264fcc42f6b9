package utils

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/patchwell/poolhouse/models"
)

// ConvertJSONFileToConfig opens a file.json and converts to PoolConfig.
func ConvertJSONFileToConfig(fileNamePath string) (*models.PoolConfig, error) {

	byteValue, err := os.ReadFile(fileNamePath)
	if err != nil {
		return nil, err
	}

	config := &models.PoolConfig{}
	var json = jsoniter.ConfigFastest
	err = json.Unmarshal(byteValue, config)

	return config, err
}

// ConvertYAMLFileToConfig opens a file.yaml and converts to PoolConfig.
func ConvertYAMLFileToConfig(fileNamePath string) (*models.PoolConfig, error) {

	byteValue, err := os.ReadFile(fileNamePath)
	if err != nil {
		return nil, err
	}

	config := &models.PoolConfig{}
	err = yaml.Unmarshal(byteValue, config)

	return config, err
}
