package codec

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mcncl/jyt/internal/errors"
	"github.com/mcncl/jyt/internal/models"
)

const jsonIndent = "  "

type jsonCodec struct{}

// Decode parses a single JSON value. Object key order is kept, and numbers
// without a fraction or exponent become integers.
func (jsonCodec) Decode(text string) (models.Value, error) {
	if strings.TrimSpace(text) == "" {
		return models.Value{}, errors.NewDeserializationError("invalid JSON", errors.ErrEmptyInput)
	}
	if !utf8.ValidString(text) {
		line, column := lineColumn(text, int64(invalidUTF8Offset(text)))
		return models.Value{}, errors.NewDeserializationError(
			fmt.Sprintf("invalid UTF-8 at line %d, column %d", line, column),
			errors.ErrInvalidUTF8,
		)
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber() // keep the literal so integers can be told apart from floats

	v, err := decodeJSONValue(decoder)
	if err != nil {
		return models.Value{}, jsonDecodeError(text, decoder.InputOffset(), err)
	}

	// Only whitespace may follow the top-level value.
	if tok, err := decoder.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("%w: found %v", errors.ErrTrailingData, tok)
		}
		return models.Value{}, jsonDecodeError(text, decoder.InputOffset(), err)
	}
	return v, nil
}

func decodeJSONValue(decoder *json.Decoder) (models.Value, error) {
	tok, err := decoder.Token()
	if err != nil {
		return models.Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeJSONObject(decoder)
		case '[':
			return decodeJSONArray(decoder)
		}
		return models.Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	case json.Number:
		return jsonNumber(t)
	case string:
		return models.String(t), nil
	case bool:
		return models.Bool(t), nil
	case nil:
		return models.Null(), nil
	default:
		return models.Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeJSONObject(decoder *json.Decoder) (models.Value, error) {
	m := models.NewMapping()
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return models.Value{}, unexpectedEOF(err)
		}
		key, ok := tok.(string)
		if !ok {
			return models.Value{}, fmt.Errorf("object key must be a string, found %v", tok)
		}
		v, err := decodeJSONValue(decoder)
		if err != nil {
			return models.Value{}, unexpectedEOF(err)
		}
		m.Set(key, v)
	}
	if _, err := decoder.Token(); err != nil {
		return models.Value{}, unexpectedEOF(err)
	}
	return models.MappingValue(m), nil
}

func decodeJSONArray(decoder *json.Decoder) (models.Value, error) {
	items := []models.Value{}
	for decoder.More() {
		v, err := decodeJSONValue(decoder)
		if err != nil {
			return models.Value{}, unexpectedEOF(err)
		}
		items = append(items, v)
	}
	if _, err := decoder.Token(); err != nil {
		return models.Value{}, unexpectedEOF(err)
	}
	return models.Sequence(items...), nil
}

// jsonNumber classifies a numeric literal. Integral literals that overflow
// int64 fall back to a float, and so does -0, which has no integer form.
func jsonNumber(n json.Number) (models.Value, error) {
	s := n.String()
	if s == "-0" {
		return models.Float(math.Copysign(0, -1)), nil
	}
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return models.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Value{}, fmt.Errorf("number %s out of range", s)
	}
	return models.Float(f), nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// jsonDecodeError locates err at offset, the start of the value the decoder
// was reading when it failed.
func jsonDecodeError(text string, offset int64, err error) error {
	line, column := lineColumn(text, offset)
	var syntaxError *json.SyntaxError
	switch {
	case stderrors.As(err, &syntaxError):
		return errors.NewDeserializationError(
			fmt.Sprintf("JSON syntax error at line %d, column %d", line, column),
			err,
		)
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.NewDeserializationError("unexpected end of JSON input", err)
	default:
		return errors.NewDeserializationError(
			fmt.Sprintf("invalid JSON at line %d, column %d", line, column),
			err,
		)
	}
}

func invalidUTF8Offset(text string) int {
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				return i
			}
		}
	}
	return len(text)
}

// lineColumn converts a byte offset into a 1-based line and column.
func lineColumn(text string, offset int64) (int, int) {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	line, column := 1, 1
	for _, r := range text[:offset] {
		if r == '\n' {
			line++
			column = 1
			continue
		}
		column++
	}
	return line, column
}

// Encode renders v with two-space indentation and one element per line.
// The result has no trailing newline.
func (jsonCodec) Encode(v models.Value) (string, error) {
	var sb strings.Builder
	if err := writeJSON(&sb, v, 0); err != nil {
		return "", errors.NewSerializationError("cannot render JSON", err)
	}
	return sb.String(), nil
}

func writeJSON(sb *strings.Builder, v models.Value, depth int) error {
	switch v.Kind() {
	case models.KindNull:
		sb.WriteString("null")
	case models.KindBool:
		b, _ := v.AsBool()
		sb.WriteString(strconv.FormatBool(b))
	case models.KindInt:
		i, _ := v.AsInt()
		sb.WriteString(strconv.FormatInt(i, 10))
	case models.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s", errors.ErrNonFiniteFloat, models.FormatFloat(f))
		}
		sb.WriteString(models.FormatFloat(f))
	case models.KindString:
		s, _ := v.AsString()
		return writeJSONString(sb, s)
	case models.KindSequence:
		items, _ := v.AsSequence()
		if len(items) == 0 {
			sb.WriteString("[]")
			return nil
		}
		sb.WriteString("[\n")
		for i, item := range items {
			sb.WriteString(strings.Repeat(jsonIndent, depth+1))
			if err := writeJSON(sb, item, depth+1); err != nil {
				return err
			}
			if i < len(items)-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Repeat(jsonIndent, depth))
		sb.WriteByte(']')
	case models.KindMapping:
		m, _ := v.AsMapping()
		if m.Len() == 0 {
			sb.WriteString("{}")
			return nil
		}
		sb.WriteString("{\n")
		for i, e := range m.Entries() {
			sb.WriteString(strings.Repeat(jsonIndent, depth+1))
			if err := writeJSONString(sb, e.Key); err != nil {
				return err
			}
			sb.WriteString(": ")
			if err := writeJSON(sb, e.Value, depth+1); err != nil {
				return err
			}
			if i < m.Len()-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Repeat(jsonIndent, depth))
		sb.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %s", v.Kind())
	}
	return nil
}

func writeJSONString(sb *strings.Builder, s string) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		return err
	}
	sb.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return nil
}
