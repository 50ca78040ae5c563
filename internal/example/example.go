// Package example строит иллюстративные значения по JSON Schema.
//
// Правила: объявленный default возвращается как есть, иначе значение
// строится по type (object, array, string, integer, boolean); для прочих
// типов null. enum, format, границы и композиции схем не учитываются.
package example

import "github.com/mdwit/spec2mcp/internal/document"

const (
	// DefaultMaxDepth глубина вложенности, после которой значение заменяется на null
	DefaultMaxDepth = 32
	// DefaultMaxNodes число узлов одного примера
	DefaultMaxNodes = 10000
)

// Resolver разыменовывает $ref внутри схемы
type Resolver interface {
	Deref(node *document.Node) (*document.Node, string)
}

// Reason причина усечения примера
type Reason int

const (
	ReasonDepth Reason = iota
	ReasonCycle
	ReasonSize
)

func (r Reason) String() string {
	switch r {
	case ReasonCycle:
		return "cycle"
	case ReasonSize:
		return "size"
	default:
		return "depth"
	}
}

// Truncation описывает место, где построение примера было остановлено
type Truncation struct {
	Reason  Reason
	Pointer string // для ReasonCycle
	Depth   int
}

type Option func(*Synthesizer)

// WithMaxDepth ограничивает глубину; n <= 0 оставляет DefaultMaxDepth
func WithMaxDepth(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithMaxNodes ограничивает размер примера; n <= 0 оставляет DefaultMaxNodes
func WithMaxNodes(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

// WithResolver включает разыменование вложенных $ref
func WithResolver(r Resolver) Option {
	return func(s *Synthesizer) { s.refs = r }
}

// WithTruncationHook вызывается при каждом усечении
func WithTruncationHook(fn func(Truncation)) Option {
	return func(s *Synthesizer) { s.onTruncate = fn }
}

// Synthesizer не хранит состояния между вызовами и безопасен для горутин
type Synthesizer struct {
	maxDepth   int
	maxNodes   int
	refs       Resolver
	onTruncate func(Truncation)
}

func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{maxDepth: DefaultMaxDepth, maxNodes: DefaultMaxNodes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize строит пример по схеме
func (s *Synthesizer) Synthesize(schema *document.Node) *document.Node {
	w := &walk{s: s, active: make(map[string]bool)}
	return w.value(schema, 0)
}

// walk состояние одного вызова Synthesize: указатели на текущем пути
// и число построенных узлов
type walk struct {
	s      *Synthesizer
	active map[string]bool
	nodes  int
}

func (w *walk) value(schema *document.Node, depth int) *document.Node {
	if depth > w.s.maxDepth {
		w.truncate(Truncation{Reason: ReasonDepth, Depth: depth})
		return document.Null()
	}
	if w.nodes >= w.s.maxNodes {
		w.truncate(Truncation{Reason: ReasonSize, Depth: depth})
		return document.Null()
	}
	w.nodes++

	if w.s.refs != nil {
		var entered []string
		defer func() {
			for _, ptr := range entered {
				delete(w.active, ptr)
			}
		}()
		for {
			target, ptr := w.s.refs.Deref(schema)
			if ptr == "" {
				break
			}
			if w.active[ptr] {
				w.truncate(Truncation{Reason: ReasonCycle, Pointer: ptr, Depth: depth})
				return document.Null()
			}
			w.active[ptr] = true
			entered = append(entered, ptr)
			schema = target
		}
	}

	if def := schema.Get("default"); def != nil {
		return def
	}

	switch schema.Get("type").Str() {
	case "object":
		props := schema.Get("properties").Fields()
		fields := make([]document.Field, 0, len(props))
		for _, p := range props {
			fields = append(fields, document.Field{Key: p.Key, Value: w.value(p.Value, depth+1)})
		}
		return document.Object(fields...)
	case "array":
		items := schema.Get("items")
		if items == nil {
			items = document.Object()
		}
		return document.Array(w.value(items, depth+1))
	case "string":
		return document.String("string")
	case "integer":
		return document.Int(0)
	case "boolean":
		return document.Bool(false)
	default:
		return document.Null()
	}
}

func (w *walk) truncate(t Truncation) {
	if w.s.onTruncate != nil {
		w.s.onTruncate(t)
	}
}
