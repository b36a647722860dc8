package codec

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mcncl/jyt/internal/errors"
	"github.com/mcncl/jyt/internal/models"
)

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type tomlCodec struct{}

// Decode parses a TOML document. Keys keep the order in which they first
// appear in the text; datetimes become strings since the value tree has no
// datetime variant.
func (tomlCodec) Decode(text string) (models.Value, error) {
	var doc map[string]any
	md, err := toml.Decode(text, &doc)
	if err != nil {
		return models.Value{}, errors.NewDeserializationError("invalid TOML", err)
	}

	v, err := tomlValue(doc, nil, "", keyOrder(md, doc))
	if err != nil {
		return models.Value{}, errors.NewDeserializationError("invalid TOML", err)
	}
	return v, nil
}

// keyOrder maps the order path of every key, and of each of its prefixes,
// to the position where it first appears. Prefixes cover implicitly created
// tables. Order paths carry the element index inside arrays of tables, so
// each element keeps its own key order.
func keyOrder(md toml.MetaData, doc map[string]any) map[string]int {
	o := &orderer{
		md:     md,
		order:  make(map[string]int),
		cursor: make(map[string]int),
		seen:   make(map[string]bool),
	}
	for i, key := range md.Keys() {
		o.add(key, i, doc)
	}
	return o.order
}

type orderer struct {
	md     toml.MetaData
	order  map[string]int
	cursor map[string]int  // current element of each array of tables
	seen   map[string]bool // keys already defined inside an element
}

func (o *orderer) add(key toml.Key, pos int, doc map[string]any) {
	var node any = doc
	op := ""
	for j, name := range key {
		op = orderPath(op, name)
		o.record(op, pos)

		table, _ := node.(map[string]any)
		node = table[name]

		elems, ok := tableElements(node)
		if !ok {
			continue
		}
		if j == len(key)-1 {
			if o.md.Type(key...) == "ArrayHash" {
				c, started := o.cursor[op]
				if !started {
					c = -1
				}
				o.cursor[op] = min(c+1, len(elems)-1)
				o.record(elementPath(op, o.cursor[op]), pos)
			}
			continue
		}

		c := o.element(op, elems, key, key[j+1:])
		op = elementPath(op, c)
		o.record(op, pos)
		node = elems[c]
	}
}

// element picks the array element that key belongs to, where rest is the
// part of key below the array. Keys arrive in document order, so it is the
// current element unless that element lacks rest or already defined it.
func (o *orderer) element(op string, elems []map[string]any, key, rest toml.Key) int {
	header := o.md.Type(key...) == "ArrayHash"
	c := max(o.cursor[op], 0)
	for ; c < len(elems)-1; c++ {
		if _, ok := elems[c][rest[0]]; !ok {
			continue
		}
		if header || repeatable(elems[c], rest) || !o.seen[elementPath(op, c)+rest.String()] {
			break
		}
	}
	o.cursor[op] = c
	if !header && !repeatable(elems[c], rest) {
		o.seen[elementPath(op, c)+rest.String()] = true
	}
	return c
}

// repeatable reports whether rest passes through an array of tables inside
// elem, in which case it may occur once per element of that array.
func repeatable(elem map[string]any, rest toml.Key) bool {
	var node any = elem
	for _, name := range rest[:len(rest)-1] {
		table, ok := node.(map[string]any)
		if !ok {
			return false
		}
		node = table[name]
		if _, ok := tableElements(node); ok {
			return true
		}
	}
	return false
}

func (o *orderer) record(op string, pos int) {
	if _, ok := o.order[op]; !ok {
		o.order[op] = pos
	}
}

func orderPath(parent, name string) string {
	return parent + "/" + strconv.Quote(name)
}

func elementPath(parent string, i int) string {
	return parent + "#" + strconv.Itoa(i)
}

// tableElements returns v as a list of tables when it is an array of
// tables, written either with [[headers]] or inline.
func tableElements(v any) ([]map[string]any, bool) {
	switch t := v.(type) {
	case []map[string]any:
		return t, len(t) > 0
	case []any:
		elems := make([]map[string]any, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			elems = append(elems, m)
		}
		return elems, len(elems) > 0
	default:
		return nil, false
	}
}

func tomlValue(v any, path toml.Key, op string, order map[string]int) (models.Value, error) {
	switch t := v.(type) {
	case map[string]any:
		return tomlTable(t, path, op, order)
	case []map[string]any:
		items := make([]models.Value, 0, len(t))
		for i, table := range t {
			item, err := tomlTable(table, path, elementPath(op, i), order)
			if err != nil {
				return models.Value{}, err
			}
			items = append(items, item)
		}
		return models.Sequence(items...), nil
	case []any:
		items := make([]models.Value, 0, len(t))
		for i, elem := range t {
			item, err := tomlValue(elem, path, elementPath(op, i), order)
			if err != nil {
				return models.Value{}, err
			}
			items = append(items, item)
		}
		return models.Sequence(items...), nil
	case string:
		return models.String(t), nil
	case int64:
		return models.Int(t), nil
	case float64:
		return models.Float(t), nil
	case bool:
		return models.Bool(t), nil
	case time.Time:
		return models.String(tomlDatetime(t)), nil
	default:
		return models.Value{}, fmt.Errorf("%s: unsupported TOML value of type %T", path, v)
	}
}

func tomlTable(table map[string]any, path toml.Key, op string, order map[string]int) (models.Value, error) {
	type orderedKey struct {
		name string
		pos  int
	}
	keys := make([]orderedKey, 0, len(table))
	for k := range table {
		pos, ok := order[orderPath(op, k)]
		if !ok {
			pos = math.MaxInt
		}
		keys = append(keys, orderedKey{name: k, pos: pos})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pos != keys[j].pos {
			return keys[i].pos < keys[j].pos
		}
		return keys[i].name < keys[j].name
	})

	m := models.NewMapping()
	for _, k := range keys {
		v, err := tomlValue(table[k.name], childKey(path, k.name), orderPath(op, k.name), order)
		if err != nil {
			return models.Value{}, err
		}
		m.Set(k.name, v)
	}
	return models.MappingValue(m), nil
}

func childKey(path toml.Key, name string) toml.Key {
	child := make(toml.Key, len(path), len(path)+1)
	copy(child, path)
	return append(child, name)
}

// tomlDatetime formats t the way it was written: local dates, times and
// datetimes carry no offset.
func tomlDatetime(t time.Time) string {
	switch t.Location().String() {
	case "date-local":
		return t.Format("2006-01-02")
	case "time-local":
		return t.Format("15:04:05.999999999")
	case "datetime-local":
		return t.Format("2006-01-02T15:04:05.999999999")
	default:
		return t.Format(time.RFC3339Nano)
	}
}

// Encode renders a mapping as a TOML document. Within each table key/value
// pairs come first, then sub-tables and arrays of tables as header sections
// in insertion order. Tables that precede a plain key are written in place
// as dotted keys or inline arrays so that key order survives.
func (tomlCodec) Encode(v models.Value) (string, error) {
	m, ok := v.AsMapping()
	if !ok {
		return "", errors.NewSerializationError(
			"cannot render TOML",
			fmt.Errorf("%w, found %s", errors.ErrNonTableRoot, v.Kind()),
		)
	}

	w := &tomlWriter{}
	if err := w.table(nil, m, rootSection); err != nil {
		return "", errors.NewSerializationError("cannot render TOML", err)
	}
	return w.sb.String(), nil
}

type sectionKind int

const (
	rootSection sectionKind = iota
	tableSection
	arraySection
)

type tomlWriter struct {
	sb strings.Builder
}

func (w *tomlWriter) header(text string) {
	if w.sb.Len() > 0 {
		w.sb.WriteByte('\n')
	}
	w.sb.WriteString(text)
	w.sb.WriteByte('\n')
}

func (w *tomlWriter) table(path []string, m *models.Mapping, kind sectionKind) error {
	entries := m.Entries()

	// Sub-tables written before a plain key stay in place as dotted keys,
	// since a header section would move them after it.
	last := -1
	for i, e := range entries {
		if !isSection(e.Value) {
			last = i
		}
	}
	var inPlace, nested []models.Entry
	for i, e := range entries {
		if i < last || !isSection(e.Value) {
			inPlace = append(inPlace, e)
		} else {
			nested = append(nested, e)
		}
	}

	switch kind {
	case arraySection:
		w.header("[[" + dottedKey(path) + "]]")
	case tableSection:
		// A table holding only sub-tables is implied by their headers.
		if len(inPlace) > 0 || len(nested) == 0 {
			w.header("[" + dottedKey(path) + "]")
		}
	}

	for _, e := range inPlace {
		if err := w.keyValue(path, []string{e.Key}, e.Value); err != nil {
			return err
		}
	}

	for _, e := range nested {
		child := append(path[:len(path):len(path)], e.Key)
		if sub, ok := e.Value.AsMapping(); ok {
			if err := w.table(child, sub, tableSection); err != nil {
				return err
			}
			continue
		}
		items, _ := e.Value.AsSequence()
		for _, item := range items {
			sub, _ := item.AsMapping()
			if err := w.table(child, sub, arraySection); err != nil {
				return err
			}
		}
	}
	return nil
}

// keyValue writes v under key, relative to the table at path. Non-empty
// tables expand into one dotted key per leaf.
func (w *tomlWriter) keyValue(path, key []string, v models.Value) error {
	if sub, ok := v.AsMapping(); ok && sub.Len() > 0 {
		for _, e := range sub.Entries() {
			if err := w.keyValue(path, append(key[:len(key):len(key)], e.Key), e.Value); err != nil {
				return err
			}
		}
		return nil
	}

	w.sb.WriteString(dottedKey(key))
	w.sb.WriteString(" = ")
	full := append(path[:len(path):len(path)], key...)
	if err := w.inline(v, full); err != nil {
		return err
	}
	w.sb.WriteByte('\n')
	return nil
}

// isSection reports whether v renders as a header section rather than an
// inline value: tables, and non-empty arrays made only of tables.
func isSection(v models.Value) bool {
	switch v.Kind() {
	case models.KindMapping:
		return true
	case models.KindSequence:
		items, _ := v.AsSequence()
		if len(items) == 0 {
			return false
		}
		for _, item := range items {
			if item.Kind() != models.KindMapping {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (w *tomlWriter) inline(v models.Value, path []string) error {
	switch v.Kind() {
	case models.KindNull:
		return fmt.Errorf("%w (at %s)", errors.ErrNullInTOML, dottedKey(path))
	case models.KindBool:
		b, _ := v.AsBool()
		w.sb.WriteString(strconv.FormatBool(b))
	case models.KindInt:
		i, _ := v.AsInt()
		w.sb.WriteString(strconv.FormatInt(i, 10))
	case models.KindFloat:
		f, _ := v.AsFloat()
		w.sb.WriteString(tomlFloat(f))
	case models.KindString:
		s, _ := v.AsString()
		w.sb.WriteString(tomlString(s))
	case models.KindSequence:
		items, _ := v.AsSequence()
		w.sb.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			if err := w.inline(item, path); err != nil {
				return err
			}
		}
		w.sb.WriteByte(']')
	case models.KindMapping:
		m, _ := v.AsMapping()
		if m.Len() == 0 {
			w.sb.WriteString("{}")
			return nil
		}
		w.sb.WriteString("{ ")
		for i, e := range m.Entries() {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			w.sb.WriteString(tomlKey(e.Key))
			w.sb.WriteString(" = ")
			if err := w.inline(e.Value, append(path[:len(path):len(path)], e.Key)); err != nil {
				return err
			}
		}
		w.sb.WriteString(" }")
	default:
		return fmt.Errorf("unknown value kind %s", v.Kind())
	}
	return nil
}

func dottedKey(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = tomlKey(p)
	}
	return strings.Join(parts, ".")
}

func tomlKey(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	return tomlString(k)
}

func tomlString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04X`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func tomlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return models.FormatFloat(f)
	}
}
