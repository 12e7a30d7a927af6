package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func jsonValue(name string, v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return data, nil
}

func scanJSON(name string, value interface{}, dest interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported %s type %T", name, value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}

// StringList is a JSONB encoded list of strings.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return jsonValue("string list", []string(l))
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	*l = StringList{}
	return scanJSON("string list", value, (*[]string)(l))
}
