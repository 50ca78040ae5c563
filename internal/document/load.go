package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load читает документ из файла (JSON или YAML)
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse разбирает документ из памяти. name используется в ошибках.
// Содержимое, начинающееся с '{' или '[', читается как JSON, остальное как YAML.
func Parse(data []byte, name string) (*Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &MalformedDocumentError{Name: name, Err: errors.New("empty document")}
	}

	var (
		root *Node
		err  error
	)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		root, err = decodeJSON(trimmed)
	} else {
		root, err = decodeYAML(trimmed)
	}
	if err != nil {
		return nil, &MalformedDocumentError{Name: name, Err: err}
	}
	return root, nil
}

func decodeJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected %v after top-level value", tok)
	}
	return root, nil
}

func decodeJSONValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := newObject(0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := &Node{kind: KindArray}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
	case string:
		return String(v), nil
	case json.Number:
		return Number(v.String()), nil
	case bool:
		return Bool(v), nil
	case nil:
		return Null(), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	c := &yamlConverter{
		aliases: make(map[*yaml.Node]*Node),
		sizes:   make(map[*yaml.Node]int),
		active:  make(map[*yaml.Node]bool),
	}
	return c.convert(doc.Content[0])
}

// maxExpandedNodes предел числа узлов документа после раскрытия алиасов
const maxExpandedNodes = 1 << 22

var errAliasExpansion = errors.New("document is too large after alias expansion")

// yamlConverter переводит yaml.Node в Node.
// Цели алиасов конвертируются один раз и разделяются, но в счётчик
// expanded каждое использование алиаса входит полным размером.
type yamlConverter struct {
	aliases  map[*yaml.Node]*Node
	sizes    map[*yaml.Node]int
	active   map[*yaml.Node]bool
	expanded int
}

func (c *yamlConverter) grow(n int) error {
	c.expanded += n
	if c.expanded > maxExpandedNodes {
		return errAliasExpansion
	}
	return nil
}

func (c *yamlConverter) convert(n *yaml.Node) (*Node, error) {
	if n.Kind != yaml.AliasNode && n.Kind != yaml.DocumentNode {
		if err := c.grow(1); err != nil {
			return nil, err
		}
	}

	switch n.Kind {
	case yaml.AliasNode:
		return c.alias(n.Alias)
	case yaml.ScalarNode:
		return convertScalar(n), nil
	case yaml.SequenceNode:
		arr := &Node{kind: KindArray, items: make([]*Node, 0, len(n.Content))}
		for _, it := range n.Content {
			val, err := c.convert(it)
			if err != nil {
				return nil, err
			}
			arr.items = append(arr.items, val)
		}
		return arr, nil
	case yaml.MappingNode:
		obj := newObject(len(n.Content) / 2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind == yaml.AliasNode && keyNode.Alias != nil {
				keyNode = keyNode.Alias
			}
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", keyNode.Line)
			}
			val, err := c.convert(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.set(keyNode.Value, val)
		}
		return obj, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return c.convert(n.Content[0])
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func (c *yamlConverter) alias(target *yaml.Node) (*Node, error) {
	if target == nil {
		return nil, errors.New("dangling alias")
	}
	if done, ok := c.aliases[target]; ok {
		if err := c.grow(c.sizes[target]); err != nil {
			return nil, err
		}
		return done, nil
	}
	if c.active[target] {
		return nil, fmt.Errorf("line %d: anchor %q refers to itself", target.Line, target.Anchor)
	}
	c.active[target] = true
	defer delete(c.active, target)

	before := c.expanded
	val, err := c.convert(target)
	if err != nil {
		return nil, err
	}
	c.aliases[target] = val
	c.sizes[target] = c.expanded - before
	return val, nil
}

func convertScalar(n *yaml.Node) *Node {
	switch n.ShortTag() {
	case "!!null":
		return Null()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return Bool(b)
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i)
		}
		if isJSONNumber(n.Value) {
			return Number(n.Value)
		}
		var f float64
		if err := n.Decode(&f); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return Number(strconv.FormatFloat(f, 'g', -1, 64))
		}
	case "!!float":
		if isJSONNumber(n.Value) {
			return Number(n.Value)
		}
		var f float64
		if err := n.Decode(&f); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return Number(strconv.FormatFloat(f, 'g', -1, 64))
		}
	}
	return String(n.Value)
}

// isJSONNumber сообщает, можно ли сохранить литерал без изменений
func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	var num json.Number
	return json.Unmarshal([]byte(s), &num) == nil
}
