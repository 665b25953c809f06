package encodedcol

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// columnConfig mirrors the column declaration options in YAML form.
type columnConfig struct {
	EncodeColumn      bool           `yaml:"encode_column"`
	EncodeClass       string         `yaml:"encode_class"`
	EncodeArgs        map[string]any `yaml:"encode_args"`
	EncodeCheckMethod string         `yaml:"encode_check_method"`
}

// LoadColumnOptions parses a YAML mapping of column names to declaration
// options, suitable for WithColumns:
//
//	Password:
//	  encode_column: true
//	  encode_class: digest
//	  encode_args:
//	    algorithm: SHA-1
//	    format: hex
//	    salt_length: 10
//	  encode_check_method: CheckPassword
//
// The loader validates shape only; backend resolution and argument
// validation happen at schema registration.
func LoadColumnOptions(data []byte) (map[string]ColumnOptions, error) {
	var raw map[string]columnConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("column config: %w", err)
	}

	out := make(map[string]ColumnOptions, len(raw))
	for name, c := range raw {
		out[name] = ColumnOptions{
			EncodeColumn:      c.EncodeColumn,
			EncodeClass:       c.EncodeClass,
			EncodeArgs:        Args(c.EncodeArgs),
			EncodeCheckMethod: c.EncodeCheckMethod,
		}
	}
	return out, nil
}
