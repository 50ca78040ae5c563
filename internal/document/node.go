package document

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind вид узла документа
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	// KindUnresolved: ссылка, которую не удалось разрешить.
	// Сериализуется как пустой объект.
	KindUnresolved
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Node неизменяемый узел дерева документа.
// nil означает отсутствующий узел: все методы чтения допускают nil.
type Node struct {
	kind  Kind
	b     bool
	text  string // строка, литерал числа или указатель для KindUnresolved
	items []*Node
	keys  []string
	index map[string]*Node
}

// Field пара ключ-значение объекта
type Field struct {
	Key   string
	Value *Node
}

func Null() *Node { return &Node{kind: KindNull} }

func Bool(b bool) *Node { return &Node{kind: KindBool, b: b} }

// Number создаёт число из литерала, например "0" или "1.5e3"
func Number(literal string) *Node { return &Node{kind: KindNumber, text: literal} }

func Int(i int64) *Node { return Number(strconv.FormatInt(i, 10)) }

func String(s string) *Node { return &Node{kind: KindString, text: s} }

func Array(items ...*Node) *Node {
	copied := make([]*Node, len(items))
	for i, it := range items {
		if it == nil {
			it = Null()
		}
		copied[i] = it
	}
	return &Node{kind: KindArray, items: copied}
}

// Object создаёт объект с ключами в порядке перечисления.
// Повторный ключ заменяет значение, сохраняя позицию первого.
func Object(fields ...Field) *Node {
	n := newObject(len(fields))
	for _, f := range fields {
		n.set(f.Key, f.Value)
	}
	return n
}

// Unresolved создаёт узел для неразрешённого указателя
func Unresolved(pointer string) *Node {
	return &Node{kind: KindUnresolved, text: pointer}
}

func newObject(size int) *Node {
	return &Node{kind: KindObject, keys: make([]string, 0, size), index: make(map[string]*Node, size)}
}

// set используется только при построении узла
func (n *Node) set(key string, value *Node) {
	if value == nil {
		value = Null()
	}
	if _, ok := n.index[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.index[key] = value
}

func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

func (n *Node) IsObject() bool { return n.Kind() == KindObject }

func (n *Node) IsArray() bool { return n.Kind() == KindArray }

func (n *Node) IsUnresolved() bool { return n.Kind() == KindUnresolved }

// Get возвращает значение по ключу или nil, если узел не объект или ключа нет
func (n *Node) Get(key string) *Node {
	if n.Kind() != KindObject {
		return nil
	}
	return n.index[key]
}

func (n *Node) Has(key string) bool { return n.Get(key) != nil }

// Lookup спускается по цепочке ключей
func (n *Node) Lookup(keys ...string) *Node {
	for _, k := range keys {
		n = n.Get(k)
	}
	return n
}

// Keys возвращает ключи объекта в исходном порядке
func (n *Node) Keys() []string {
	if n.Kind() != KindObject {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Fields возвращает пары объекта в исходном порядке
func (n *Node) Fields() []Field {
	if n.Kind() != KindObject {
		return nil
	}
	fields := make([]Field, len(n.keys))
	for i, k := range n.keys {
		fields[i] = Field{Key: k, Value: n.index[k]}
	}
	return fields
}

func (n *Node) Items() []*Node {
	if n.Kind() != KindArray {
		return nil
	}
	return append([]*Node(nil), n.items...)
}

// Len число элементов массива или ключей объекта
func (n *Node) Len() int {
	switch n.Kind() {
	case KindArray:
		return len(n.items)
	case KindObject:
		return len(n.keys)
	default:
		return 0
	}
}

// Str значение строки; для остальных видов пустая строка
func (n *Node) Str() string {
	if n.Kind() != KindString {
		return ""
	}
	return n.text
}

// BoolOr значение bool или def, если узел другого вида
func (n *Node) BoolOr(def bool) bool {
	if n.Kind() != KindBool {
		return def
	}
	return n.b
}

// NumberLiteral литерал числа
func (n *Node) NumberLiteral() string {
	if n.Kind() != KindNumber {
		return ""
	}
	return n.text
}

// Pointer указатель, который не удалось разрешить
func (n *Node) Pointer() string {
	if n.Kind() != KindUnresolved {
		return ""
	}
	return n.text
}

// Ref возвращает значение $ref, если узел является объектом-ссылкой
func (n *Node) Ref() (string, bool) {
	ref := n.Get("$ref")
	if ref.Kind() != KindString {
		return "", false
	}
	return ref.text, true
}

// Equal сравнивает узлы структурно; порядок ключей объекта не учитывается
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindBool:
		return n.b == o.b
	case KindNumber, KindString, KindUnresolved:
		return n.text == o.text
	case KindArray:
		if len(n.items) != len(o.items) {
			return false
		}
		for i := range n.items {
			if !n.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(n.keys) != len(o.keys) {
			return false
		}
		for _, k := range n.keys {
			if !n.index[k].Equal(o.index[k]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String возвращает компактный JSON узла
func (n *Node) String() string {
	var buf bytes.Buffer
	n.writeJSON(&buf)
	return buf.String()
}

// MarshalJSON сохраняет порядок ключей объекта
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	n.writeJSON(&buf)
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) {
	switch n.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(n.b))
	case KindNumber:
		buf.WriteString(n.text)
	case KindString:
		writeJSONString(buf, n.text)
	case KindUnresolved:
		buf.WriteString("{}")
	case KindArray:
		buf.WriteByte('[')
		for i, it := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			it.writeJSON(buf)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, k)
			buf.WriteByte(':')
			n.index[k].writeJSON(buf)
		}
		buf.WriteByte('}')
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// MarshalYAML сохраняет порядок ключей объекта
func (n *Node) MarshalYAML() (interface{}, error) {
	return n.yamlNode(), nil
}

func (n *Node) yamlNode() *yaml.Node {
	switch n.Kind() {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(n.b)}
	case KindNumber:
		tag := "!!int"
		if strings.ContainsAny(n.text, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: n.text}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.text}
	case KindUnresolved:
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: yaml.FlowStyle}
	case KindArray:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(n.items) == 0 {
			out.Style = yaml.FlowStyle
		}
		for _, it := range n.items {
			out.Content = append(out.Content, it.yamlNode())
		}
		return out
	case KindObject:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if len(n.keys) == 0 {
			out.Style = yaml.FlowStyle
		}
		for _, k := range n.keys {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				n.index[k].yamlNode())
		}
		return out
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
