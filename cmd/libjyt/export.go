//go:build cgo

package main

/*
#include <stdlib.h>

typedef enum { Json = 0, Yaml = 1, Toml = 2 } Ext;
*/
import "C"

import (
	"unsafe"

	"github.com/mcncl/jyt/internal/codec"
)

func export(from C.int, text *C.char, to codec.Format) *C.char {
	if text == nil {
		return nil
	}
	out, ok := convert(int(from), C.GoString(text), to)
	if !ok {
		return nil
	}
	return C.CString(out)
}

//export to_json
func to_json(from C.int, text *C.char) *C.char {
	return export(from, text, codec.JSON)
}

//export to_yaml
func to_yaml(from C.int, text *C.char) *C.char {
	return export(from, text, codec.YAML)
}

//export to_toml
func to_toml(from C.int, text *C.char) *C.char {
	return export(from, text, codec.TOML)
}

//export jyt_free
func jyt_free(s *C.char) {
	C.free(unsafe.Pointer(s))
}
