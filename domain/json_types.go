package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is an opaque JSON document column. The engine never assumes a
// schema inside it beyond explicitly named pre-population fields.
type JSONMap map[string]interface{}

func (t JSONMap) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *JSONMap) Scan(v interface{}) error {
	if v == nil {
		*c = nil
		return nil
	}
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}

// IsEmpty treats nil and {} alike, both are re-seedable form state.
func (t JSONMap) IsEmpty() bool {
	return len(t) == 0
}

const (
	ActionGenerateDocument    = "generate_document"
	ActionTransferDocument    = "transfer_document"
	ActionCreateNotification  = "create_notification"
	ActionUpdateDossierStatus = "update_dossier_status"
)

type ActionSpec struct {
	Type string `json:"type"`

	DocumentType string `json:"documentType,omitempty"`
	To           string `json:"to,omitempty"`
	Message      string `json:"message,omitempty"`
	Status       string `json:"status,omitempty"`
}

type ActionSpecs []ActionSpec

func (t ActionSpecs) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *ActionSpecs) Scan(v interface{}) error {
	if v == nil {
		*c = nil
		return nil
	}
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}
