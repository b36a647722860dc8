package codec

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/jyt/internal/errors"
	"github.com/mcncl/jyt/internal/models"
)

const (
	yamlIndent = 2

	// maxAliasExpansion bounds the number of nodes produced while expanding
	// aliases, so documents built from nested aliases cannot exhaust memory.
	maxAliasExpansion = 1 << 20
)

type yamlCodec struct{}

// Decode parses the first document of a YAML stream. Plain scalars are
// resolved with the YAML core schema, aliases are expanded and merge keys
// are applied. An empty stream decodes to null.
func (yamlCodec) Decode(text string) (models.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return models.Value{}, errors.NewDeserializationError("invalid YAML", err)
	}
	if doc.Kind == 0 {
		return models.Null(), nil
	}

	d := &yamlDecoder{active: make(map[*yaml.Node]bool)}
	v, err := d.node(&doc)
	if err != nil {
		return models.Value{}, errors.NewDeserializationError("invalid YAML", err)
	}
	return v, nil
}

type yamlDecoder struct {
	active   map[*yaml.Node]bool
	expanded int
}

func (d *yamlDecoder) node(n *yaml.Node) (models.Value, error) {
	if len(d.active) > 0 {
		d.expanded++
		if d.expanded > maxAliasExpansion {
			return models.Value{}, fmt.Errorf("line %d: document expands to too many nodes through aliases", n.Line)
		}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return models.Null(), nil
		}
		return d.node(n.Content[0])
	case yaml.AliasNode:
		if d.active[n.Alias] {
			return models.Value{}, fmt.Errorf("line %d: %w: *%s", n.Line, errors.ErrRecursiveAlias, n.Value)
		}
		d.active[n.Alias] = true
		defer delete(d.active, n.Alias)
		return d.node(n.Alias)
	case yaml.ScalarNode:
		return yamlScalar(n)
	case yaml.SequenceNode:
		items := make([]models.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.node(c)
			if err != nil {
				return models.Value{}, err
			}
			items = append(items, v)
		}
		return models.Sequence(items...), nil
	case yaml.MappingNode:
		m := models.NewMapping()
		if err := d.mapping(n, m); err != nil {
			return models.Value{}, err
		}
		return models.MappingValue(m), nil
	default:
		return models.Value{}, fmt.Errorf("line %d: unexpected node kind %d", n.Line, n.Kind)
	}
}

func (d *yamlDecoder) mapping(n *yaml.Node, m *models.Mapping) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			if err := d.merge(v, m); err != nil {
				return err
			}
			continue
		}

		key, err := yamlKey(k)
		if err != nil {
			return err
		}
		val, err := d.node(v)
		if err != nil {
			return err
		}
		m.Set(key, val)
	}
	return nil
}

// merge applies a "<<" entry. Keys already present win over merged ones, and
// earlier mappings in a merge sequence win over later ones.
func (d *yamlDecoder) merge(n *yaml.Node, m *models.Mapping) error {
	v, err := d.node(n)
	if err != nil {
		return err
	}

	var sources []models.Value
	switch v.Kind() {
	case models.KindMapping:
		sources = []models.Value{v}
	case models.KindSequence:
		sources, _ = v.AsSequence()
	default:
		return fmt.Errorf("line %d: merge key expects a mapping or a sequence of mappings", n.Line)
	}

	for _, src := range sources {
		sm, ok := src.AsMapping()
		if !ok {
			return fmt.Errorf("line %d: merge key expects a mapping or a sequence of mappings", n.Line)
		}
		for _, e := range sm.Entries() {
			m.SetIfAbsent(e.Key, e.Value)
		}
	}
	return nil
}

// yamlKey stringifies a scalar key from its source text.
func yamlKey(k *yaml.Node) (string, error) {
	if k.Kind == yaml.AliasNode && k.Alias != nil {
		k = k.Alias
	}
	if k.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: %w", k.Line, errors.ErrUnsupportedKey)
	}
	if k.ShortTag() == "!!null" {
		return "null", nil
	}
	return k.Value, nil
}

func yamlScalar(n *yaml.Node) (models.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return models.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return models.Value{}, err
		}
		return models.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return models.Int(i), nil
		}
		// Beyond int64; keep the magnitude as a float.
		var f float64
		if err := n.Decode(&f); err != nil {
			return models.Value{}, err
		}
		return models.Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return models.Value{}, err
		}
		return models.Float(f), nil
	default:
		// !!str, !!timestamp, !!binary and application tags keep their text.
		return models.String(n.Value), nil
	}
}

// Encode renders v as a single block-style YAML document with two-space
// indentation. Sequence items inside a mapping are aligned with their key.
func (yamlCodec) Encode(v models.Value) (string, error) {
	node, err := yamlNode(v)
	if err != nil {
		return "", errors.NewSerializationError("cannot render YAML", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(yamlIndent)
	if err := encoder.Encode(node); err != nil {
		return "", errors.NewSerializationError("cannot render YAML", err)
	}
	if err := encoder.Close(); err != nil {
		return "", errors.NewSerializationError("cannot render YAML", err)
	}
	return buf.String(), nil
}

// yamlNode builds an explicitly tagged node tree. The emitter drops tags
// that plain resolution would infer anyway and quotes strings that would
// otherwise read back as another type.
func yamlNode(v models.Value) (*yaml.Node, error) {
	switch v.Kind() {
	case models.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case models.KindBool:
		b, _ := v.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}, nil
	case models.KindInt:
		i, _ := v.AsInt()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(i, 10)}, nil
	case models.KindFloat:
		f, _ := v.AsFloat()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(f)}, nil
	case models.KindString:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, nil
	case models.KindSequence:
		items, _ := v.AsSequence()
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			child, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case models.KindMapping:
		m, _ := v.AsMapping()
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range m.Entries() {
			child, err := yamlNode(e.Value)
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}
			node.Content = append(node.Content, key, child)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("unknown value kind %s", v.Kind())
	}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	default:
		return models.FormatFloat(f)
	}
}
