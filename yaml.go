package userdata

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	mapType           = reflect.TypeOf(Map{})
	mapPtrType        = reflect.TypeOf((*Map)(nil))
	numberType        = reflect.TypeOf(json.Number(""))
)

// cloud-init parses YAML with PyYAML (YAML 1.1). Plain scalars matching
// these patterns would not come back as strings there, so they are quoted
// even when yaml.v3 (YAML 1.2) would leave them plain.
var yaml11Implicit = []*regexp.Regexp{
	regexp.MustCompile(`^(?:y|Y|yes|Yes|YES|n|N|no|No|NO|true|True|TRUE|false|False|FALSE|on|On|ON|off|Off|OFF)$`),
	regexp.MustCompile(`^[-+]?(?:0b[0-1_]+|0[0-7_]+|(?:0|[1-9][0-9_]*)|0x[0-9a-fA-F_]+|[1-9][0-9_]*(?::[0-5]?[0-9])+)$`),
	regexp.MustCompile(`^(?:[-+]?(?:[0-9][0-9_]*)?\.[0-9_]*(?:[eE][-+]?[0-9]+)?|[-+]?[0-9][0-9_]*(?::[0-5]?[0-9])+\.[0-9_]*|[-+]?\.(?:inf|Inf|INF)|\.(?:nan|NaN|NAN))$`),
	regexp.MustCompile(`^(?:~|null|Null|NULL)$`),
	regexp.MustCompile(`^[0-9][0-9][0-9][0-9]-[0-9][0-9]?-[0-9][0-9]?`),
	regexp.MustCompile(`^(?:<<|=)$`),
}

// MarshalYAML serializes a JSON-compatible value as a YAML document.
//
// Mappings keep insertion order when given as Map or *Map; plain Go maps
// are emitted with sorted keys. Structs and other types are converted
// through encoding/json first. Values JSON cannot represent (non-string
// keys, NaN, channels, cycles) fail with ErrSerialization.
func MarshalYAML(v any) ([]byte, error) {
	s := &yamlState{seen: make(map[uintptr]bool)}
	node, err := s.node(reflect.ValueOf(v), "$")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

type yamlState struct {
	// seen holds the pointers on the current path, for cycle detection.
	seen map[uintptr]bool
}

func (s *yamlState) node(v reflect.Value, path string) (*yaml.Node, error) {
	if !v.IsValid() {
		return nullNode(), nil
	}

	switch v.Type() {
	case mapPtrType:
		if v.IsNil() {
			return nullNode(), nil
		}
		return s.orderedNode(v.Interface().(*Map), v.Pointer(), path)
	case mapType:
		m := v.Interface().(Map)
		return s.orderedNode(&m, 0, path)
	case numberType:
		return numberNode(json.Number(v.String()), path)
	}

	if v.Kind() != reflect.Interface && (v.Type().Implements(jsonMarshalerType) || v.Type().Implements(textMarshalerType)) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nullNode(), nil
		}
		return s.viaJSON(v, path)
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nullNode(), nil
		}
		return s.node(v.Elem(), path)
	case reflect.Pointer:
		if v.IsNil() {
			return nullNode(), nil
		}
		if err := s.enter(v.Pointer(), path); err != nil {
			return nil, err
		}
		defer s.leave(v.Pointer())
		return s.node(v.Elem(), path)
	case reflect.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool())}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.Int(), 10)}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(v.Uint(), 10)}, nil
	case reflect.Float32, reflect.Float64:
		bits := 64
		if v.Kind() == reflect.Float32 {
			bits = 32
		}
		return floatNode(v.Float(), bits, path)
	case reflect.String:
		return stringNode(v.String(), path)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: %s: map key type %s is not a string", ErrSerialization, path, v.Type().Key())
		}
		if v.IsNil() {
			return nullNode(), nil
		}
		if err := s.enter(v.Pointer(), path); err != nil {
			return nil, err
		}
		defer s.leave(v.Pointer())
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			kn, err := stringNode(k, path)
			if err != nil {
				return nil, err
			}
			vn, err := s.node(v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())), path+"."+k)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, kn, vn)
		}
		return n, nil
	case reflect.Slice:
		if v.IsNil() {
			return nullNode(), nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			// encoding/json renders byte slices as base64 strings.
			return s.viaJSON(v, path)
		}
		if err := s.enter(v.Pointer(), path); err != nil {
			return nil, err
		}
		defer s.leave(v.Pointer())
		return s.sequenceNode(v, path)
	case reflect.Array:
		return s.sequenceNode(v, path)
	case reflect.Struct:
		return s.viaJSON(v, path)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported type %s", ErrSerialization, path, v.Type())
	}
}

func (s *yamlState) orderedNode(m *Map, ptr uintptr, path string) (*yaml.Node, error) {
	if ptr != 0 {
		if err := s.enter(ptr, path); err != nil {
			return nil, err
		}
		defer s.leave(ptr)
	}
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		kn, err := stringNode(k, path)
		if err != nil {
			return nil, err
		}
		vn, err := s.node(reflect.ValueOf(m.values[k]), path+"."+k)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, kn, vn)
	}
	return n, nil
}

func (s *yamlState) sequenceNode(v reflect.Value, path string) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i := 0; i < v.Len(); i++ {
		item, err := s.node(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, item)
	}
	return n, nil
}

// viaJSON converts v with encoding/json and serializes the ordered result,
// so struct field order and json tags are honoured.
func (s *yamlState) viaJSON(v reflect.Value, path string) (*yaml.Node, error) {
	if !v.CanInterface() {
		return nil, fmt.Errorf("%w: %s: unexported value of type %s", ErrSerialization, path, v.Type())
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSerialization, path, err)
	}
	decoded, err := DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSerialization, path, err)
	}
	return s.node(reflect.ValueOf(decoded), path)
}

func (s *yamlState) enter(ptr uintptr, path string) error {
	if s.seen[ptr] {
		return fmt.Errorf("%w: %s: cyclic structure", ErrSerialization, path)
	}
	s.seen[ptr] = true
	return nil
}

func (s *yamlState) leave(ptr uintptr) { delete(s.seen, ptr) }

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func stringNode(s, path string) (*yaml.Node, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: %s: string is not valid UTF-8", ErrSerialization, path)
	}
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		// The emitter falls back to double quotes when a block is not possible.
		n.Style = yaml.LiteralStyle
		return n, nil
	}
	for _, re := range yaml11Implicit {
		if re.MatchString(s) {
			n.Style = yaml.DoubleQuotedStyle
			break
		}
	}
	return n, nil
}

func floatNode(f float64, bits int, path string) (*yaml.Node, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s: %v is not representable", ErrSerialization, path, f)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(f, bits)}, nil
}

func numberNode(n json.Number, path string) (*yaml.Node, error) {
	if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: string(n)}, nil
	}
	if _, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: string(n)}, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: invalid number %q", ErrSerialization, path, string(n))
	}
	return floatNode(f, 64, path)
}

// formatFloat produces the shortest representation that parses back to the
// same value, always with a decimal point in the mantissa so that YAML 1.1
// readers see a float rather than an int or a string.
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	mantissa, exp, hasExp := strings.Cut(s, "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	if hasExp {
		return mantissa + "e" + exp
	}
	return mantissa
}
