package parser

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mdwit/spec2mcp/internal/document"
	"github.com/mdwit/spec2mcp/internal/example"
)

const jsonMediaType = "application/json"

var (
	ErrPathNotFound     = errors.New("path not found in API description")
	ErrUnresolvedRef    = errors.New("unresolved reference")
	ErrInvalidSelection = errors.New("invalid selection list")
)

// Mode политика для отсутствующих данных
type Mode int

const (
	// Lenient пропускает отсутствующие пути и подставляет пустые значения
	Lenient Mode = iota
	// Strict превращает отсутствующие пути и неразрешённые ссылки в ошибки
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// Options опции построения описаний
type Options struct {
	Mode         Mode
	SelectionKey string // по умолчанию DefaultSelectionKey
	ExpandRefs   bool   // разворачивать вложенные $ref при построении примеров
	MaxDepth     int    // по умолчанию example.DefaultMaxDepth
	Workers      int    // > 1: параллельная обработка элементов выбора
	Logger       *logrus.Entry
}

// Builder строит MethodDescriptor по описанию API.
// Документ не изменяется, один Builder можно использовать повторно.
type Builder struct {
	paths *document.Node
	refs  *document.Resolver
	synth *example.Synthesizer
	opts  Options
	log   *logrus.Entry
}

func NewBuilder(doc *document.Node, opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.SelectionKey == "" {
		opts.SelectionKey = DefaultSelectionKey
	}

	b := &Builder{
		paths: doc.Get("paths"),
		refs:  document.NewResolver(doc),
		opts:  opts,
		log:   opts.Logger,
	}

	synthOpts := []example.Option{
		example.WithMaxDepth(opts.MaxDepth),
		example.WithTruncationHook(func(t example.Truncation) {
			b.log.WithFields(logrus.Fields{
				"reason": t.Reason,
				"ref":    t.Pointer,
				"depth":  t.Depth,
			}).Warn("example request truncated")
		}),
	}
	if opts.ExpandRefs {
		synthOpts = append(synthOpts, example.WithResolver(b.refs))
	}
	b.synth = example.New(synthOpts...)

	return b
}

// Build читает список выбора и строит описания методов
func Build(doc, selection *document.Node, opts Options) ([]MethodDescriptor, error) {
	b := NewBuilder(doc, opts)
	entries, err := b.Selection(selection)
	if err != nil {
		return nil, err
	}
	return b.Build(entries)
}

// Build строит описания в порядке элементов выбора, для каждого
// в порядке Verbs()
func (b *Builder) Build(entries []SelectionEntry) ([]MethodDescriptor, error) {
	results := make([][]MethodDescriptor, len(entries))
	errs := make([]error, len(entries))

	if b.opts.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(b.opts.Workers)
		for i, entry := range entries {
			g.Go(func() error {
				results[i], errs[i] = b.buildEntry(entry)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, entry := range entries {
			results[i], errs[i] = b.buildEntry(entry)
			if errs[i] != nil {
				break
			}
		}
	}

	methods := []MethodDescriptor{}
	for i := range entries {
		if errs[i] != nil {
			return nil, errs[i]
		}
		methods = append(methods, results[i]...)
	}
	return methods, nil
}

func (b *Builder) buildEntry(entry SelectionEntry) ([]MethodDescriptor, error) {
	log := b.log.WithField("method", entry.Method)

	pathItem := b.paths.Get(entry.Method)
	if pathItem == nil {
		if b.opts.Mode == Strict {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, entry.Method)
		}
		log.Debug("path not found, skipping")
		return nil, nil
	}

	var methods []MethodDescriptor
	for _, verb := range Verbs() {
		op := pathItem.Get(verb.String())
		if op == nil {
			continue
		}
		if !op.IsObject() {
			log.WithField("verb", verb).Debug("operation is not a mapping, skipping")
			continue
		}
		m, err := b.buildOperation(entry, verb, op, log.WithField("verb", verb))
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func (b *Builder) buildOperation(entry SelectionEntry, verb Verb, op *document.Node, log *logrus.Entry) (MethodDescriptor, error) {
	m := MethodDescriptor{
		Method:            entry.Method,
		MethodType:        verb,
		ShortDescription:  op.Get("summary").Str(),
		FullDescription:   op.Get("description").Str(),
		CustomDescription: entry.CustomDescription,
		Parameters:        []Parameter{},
		ResponseSchema:    document.Object(),
		ExampleRequest:    document.Object(),
	}

	deref := func(n *document.Node) (*document.Node, error) {
		target, ptr := b.refs.Deref(n)
		if target.IsUnresolved() {
			if b.opts.Mode == Strict {
				return nil, fmt.Errorf("%s %s: %w: %s", verb, entry.Method, ErrUnresolvedRef, ptr)
			}
			log.WithField("ref", ptr).Warn("unresolved reference")
		}
		return target, nil
	}

	for _, raw := range op.Get("parameters").Items() {
		param, err := deref(raw)
		if err != nil {
			return m, err
		}
		if !param.IsObject() {
			continue
		}

		p := Parameter{
			Name:        param.Get("name").Str(),
			In:          param.Get("in").Str(),
			Required:    param.Get("required").BoolOr(false),
			Description: param.Get("description").Str(),
		}

		// content → application/json → schema приоритетнее schema
		var schema *document.Node
		if media := param.Lookup("content", jsonMediaType); media != nil {
			schema = media.Get("schema")
		} else {
			schema = param.Get("schema")
		}
		if schema == nil {
			schema = document.Object()
		}
		if p.Schema, err = deref(schema); err != nil {
			return m, err
		}

		// q: структурированный поисковый запрос; встроенная схема тоже даёт пример (DESIGN.md §5.3)
		if p.In == "query" && p.Name == "q" {
			m.ExampleRequest = b.synth.Synthesize(p.Schema)
		}

		m.Parameters = append(m.Parameters, p)
	}

	if raw := op.Get("requestBody"); raw != nil {
		body, err := deref(raw)
		if err != nil {
			return m, err
		}
		if media := body.Lookup("content", jsonMediaType); media != nil {
			schema := media.Get("schema")
			if schema == nil {
				schema = document.Object()
			}
			resolved, err := deref(schema)
			if err != nil {
				return m, err
			}
			m.ExampleRequest = b.synth.Synthesize(resolved)
		}
	}

	// учитывается только ответ 200
	if raw := op.Lookup("responses", "200"); raw != nil {
		resp, err := deref(raw)
		if err != nil {
			return m, err
		}
		m.ResponseDescription = resp.Get("description").Str()
		if media := resp.Lookup("content", jsonMediaType); media != nil {
			schema := media.Get("schema")
			if schema == nil {
				schema = document.Object()
			}
			if m.ResponseSchema, err = deref(schema); err != nil {
				return m, err
			}
		}
	}

	return m, nil
}
