// Command libjyt builds jyt as a C shared library:
//
//	go build -buildmode=c-shared -o libjyt.so ./cmd/libjyt
//
// The library exports to_json, to_yaml and to_toml. Each takes a source
// format (0 json, 1 yaml, 2 toml) and a NUL-terminated document, and
// returns a newly allocated NUL-terminated string that the caller releases
// with jyt_free. NULL is returned when the conversion fails.
package main

import (
	"github.com/mcncl/jyt/internal/codec"
	"github.com/mcncl/jyt/internal/converter"
)

func main() {}

// convert maps the C format enum onto a codec.Format and runs the
// conversion. ok is false for unknown formats and failed conversions.
func convert(from int, text string, to codec.Format) (out string, ok bool) {
	source, known := sourceFormat(from)
	if !known {
		return "", false
	}
	out, err := converter.Convert(source, text, to)
	if err != nil {
		return "", false
	}
	return out, true
}

func sourceFormat(from int) (codec.Format, bool) {
	switch from {
	case 0:
		return codec.JSON, true
	case 1:
		return codec.YAML, true
	case 2:
		return codec.TOML, true
	default:
		return 0, false
	}
}
