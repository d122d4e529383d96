// Package serialization provides utilities for serializing and deserializing the
// data structures the engine persists, such as step result maps and warning lists.
package serialization

import (
	"encoding/json"

	"github.com/tenderworks/pipeline/pkg/pipeline/support/util/exception"
	logger "github.com/tenderworks/pipeline/pkg/pipeline/support/util/logger"
)

const moduleName = "serialization"

// MarshalResultMap serializes a step-result map into a JSON byte slice.
// Step outputs are kept as opaque raw JSON values; the executor that produced
// a payload owns its concrete decoding.
func MarshalResultMap(results map[string]json.RawMessage) ([]byte, error) {
	if results == nil {
		logger.Debugf("Result map is nil. Returning empty JSON object.")
		return []byte("{}"), nil
	}
	data, err := json.Marshal(results)
	if err != nil {
		logger.Errorf("Failed to serialize result map: %v", err)
		return nil, exception.NewPipelineError(moduleName, "Failed to serialize result map", err, false)
	}
	return data, nil
}

// UnmarshalResultMap deserializes a JSON byte slice into a step-result map.
func UnmarshalResultMap(data []byte, results *map[string]json.RawMessage) error {
	if *results == nil {
		*results = make(map[string]json.RawMessage)
	} else {
		for k := range *results {
			delete(*results, k)
		}
	}

	if len(data) == 0 || string(data) == "null" || string(data) == "{}" {
		logger.Debugf("Result map is nil or empty data. Created/cleared empty map.")
		return nil
	}

	if err := json.Unmarshal(data, results); err != nil {
		logger.Errorf("Failed to deserialize result map: %v", err)
		return exception.NewPipelineError(moduleName, "Failed to deserialize result map", err, false)
	}
	return nil
}

// MarshalWarnings serializes a slice of warning messages into a JSON byte slice.
func MarshalWarnings(warnings []string) ([]byte, error) {
	if warnings == nil {
		logger.Debugf("Warnings is nil. Returning empty JSON array.")
		return []byte("[]"), nil
	}

	data, err := json.Marshal(warnings)
	if err != nil {
		logger.Errorf("Failed to serialize warnings: %v", err)
		return nil, exception.NewPipelineError(moduleName, "Failed to serialize warnings", err, false)
	}
	return data, nil
}

// UnmarshalWarnings deserializes a JSON byte slice into a slice of warning messages.
func UnmarshalWarnings(data []byte, msgs *[]string) error {
	if len(data) == 0 || string(data) == "null" {
		*msgs = []string{}
		logger.Debugf("Warnings is nil or empty data. Returning empty slice.")
		return nil
	}

	if err := json.Unmarshal(data, msgs); err != nil {
		logger.Errorf("Failed to deserialize warnings: %v", err)
		return exception.NewPipelineError(moduleName, "Failed to deserialize warnings", err, false)
	}

	return nil
}
