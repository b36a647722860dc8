// Package converter decodes a document with one codec and re-encodes the
// resulting value tree with another.
package converter

import (
	"github.com/mcncl/jyt/internal/codec"
	"github.com/mcncl/jyt/internal/models"
)

// Convert decodes text as from and renders it as to. Decode failures are
// deserialization errors and encode failures are serialization errors;
// nothing is returned unless both stages succeed.
func Convert(from codec.Format, text string, to codec.Format) (string, error) {
	v, err := Decode(from, text)
	if err != nil {
		return "", err
	}
	return Encode(to, v)
}

// Decode parses text with the codec for from.
func Decode(from codec.Format, text string) (models.Value, error) {
	c, err := codec.For(from)
	if err != nil {
		return models.Value{}, err
	}
	return c.Decode(text)
}

// Encode renders v with the codec for to.
func Encode(to codec.Format, v models.Value) (string, error) {
	c, err := codec.For(to)
	if err != nil {
		return "", err
	}
	return c.Encode(v)
}

// ToJSON converts text in format from to pretty-printed JSON.
func ToJSON(from codec.Format, text string) (string, error) {
	return Convert(from, text, codec.JSON)
}

// ToYAML converts text in format from to YAML.
func ToYAML(from codec.Format, text string) (string, error) {
	return Convert(from, text, codec.YAML)
}

// ToTOML converts text in format from to TOML.
func ToTOML(from codec.Format, text string) (string, error) {
	return Convert(from, text, codec.TOML)
}
