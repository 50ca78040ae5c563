package parser

import (
	"fmt"

	"github.com/mdwit/spec2mcp/internal/document"
)

// Verb поддерживаемый HTTP-метод операции
type Verb uint8

const (
	Get Verb = iota
	Post
	Put
	Delete
)

var verbNames = [...]string{Get: "get", Post: "post", Put: "put", Delete: "delete"}

// Verbs возвращает все методы в порядке обхода
func Verbs() []Verb {
	return []Verb{Get, Post, Put, Delete}
}

func (v Verb) String() string {
	if int(v) < len(verbNames) {
		return verbNames[v]
	}
	return fmt.Sprintf("verb(%d)", uint8(v))
}

func (v Verb) MarshalText() ([]byte, error) {
	if int(v) >= len(verbNames) {
		return nil, fmt.Errorf("unknown verb %d", uint8(v))
	}
	return []byte(verbNames[v]), nil
}

func (v *Verb) UnmarshalText(text []byte) error {
	parsed, err := ParseVerb(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVerb разбирает имя метода в нижнем регистре
func ParseVerb(s string) (Verb, error) {
	for i, name := range verbNames {
		if name == s {
			return Verb(i), nil
		}
	}
	return 0, fmt.Errorf("unsupported verb %q", s)
}

// SelectionEntry элемент списка выбранных методов
type SelectionEntry struct {
	Method            string `json:"method" yaml:"method"`
	CustomDescription string `json:"custom_description" yaml:"custom_description"`
}

// Parameter параметр операции с разрешённой схемой
type Parameter struct {
	Name        string         `json:"name" yaml:"name"`
	In          string         `json:"in" yaml:"in"` // query, path, header, cookie
	Required    bool           `json:"required" yaml:"required"`
	Description string         `json:"description" yaml:"description"`
	Schema      *document.Node `json:"schema" yaml:"schema"`
}

// MethodDescriptor описание одной пары (путь, метод)
type MethodDescriptor struct {
	Method              string         `json:"method" yaml:"method"`
	MethodType          Verb           `json:"method_type" yaml:"method_type"`
	ShortDescription    string         `json:"short_description" yaml:"short_description"`
	FullDescription     string         `json:"full_description" yaml:"full_description"`
	CustomDescription   string         `json:"custom_description" yaml:"custom_description"`
	Parameters          []Parameter    `json:"parameters" yaml:"parameters"`
	ResponseSchema      *document.Node `json:"response_schema" yaml:"response_schema"`
	ResponseDescription string         `json:"response_description" yaml:"response_description"`
	ExampleRequest      *document.Node `json:"example_request" yaml:"example_request"`
}
