// Package codec turns text in one of the supported formats into a
// models.Value tree and renders trees back to text.
//
// Every codec is stateless and safe for concurrent use.
package codec

import (
	"fmt"
	"strings"

	"github.com/mcncl/jyt/internal/errors"
	"github.com/mcncl/jyt/internal/models"
)

// Format selects a codec.
type Format int

const (
	JSON Format = iota
	YAML
	TOML
)

// Formats lists every supported format in declaration order.
var Formats = []Format{JSON, YAML, TOML}

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat resolves a format name such as "json", "YAML" or "yml".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	default:
		return 0, fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, name)
	}
}

// Codec is a decode/encode pair bound to one textual format.
//
// Decode fails with an *errors.AppError of type deserialization and Encode
// with one of type serialization.
type Codec interface {
	Decode(text string) (models.Value, error)
	Encode(v models.Value) (string, error)
}

// For returns the codec for f.
func For(f Format) (Codec, error) {
	switch f {
	case JSON:
		return jsonCodec{}, nil
	case YAML:
		return yamlCodec{}, nil
	case TOML:
		return tomlCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedFormat, f)
	}
}
