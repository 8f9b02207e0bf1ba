package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// The extractor output usually wraps the invoice JSON in prose, so match the
// first opening brace through the last closing brace.
var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONBlock extracts the first JSON object found in a text block.
func ExtractJSONBlock(text string) ([]byte, error) {
	block := jsonBlockPattern.FindString(text)
	if block == "" {
		return nil, fmt.Errorf("failed to extract valid JSON: no JSON object found in text")
	}
	if !json.Valid([]byte(block)) {
		return nil, fmt.Errorf("failed to extract valid JSON: text between braces is not valid JSON")
	}
	return []byte(block), nil
}

// Marshal generic struct to JSON
func MarshalToJSON[T any](input T) (string, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// Unmarshal JSON to generic struct
func UnmarshalFromJSON[T any](data []byte, output *T) error {
	return json.Unmarshal(data, output)
}
