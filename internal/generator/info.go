package generator

import "github.com/mdwit/spec2mcp/internal/document"

// Info сведения об API для заголовка llms.txt
type Info struct {
	Title           string
	Description     string
	Version         string
	BaseURL         string
	SecuritySchemes []SecurityScheme
}

// SecurityScheme схема аутентификации
type SecurityScheme struct {
	Name        string
	Type        string // apiKey, http, oauth2, openIdConnect
	Description string
	In          string // header, query, cookie (для apiKey)
	ParamName   string // имя параметра (для apiKey)
	Scheme      string // bearer, basic (для http)
}

// InfoFromDocument извлекает info, первый сервер и схемы аутентификации
func InfoFromDocument(doc *document.Node) Info {
	info := Info{
		Title:       doc.Lookup("info", "title").Str(),
		Description: doc.Lookup("info", "description").Str(),
		Version:     doc.Lookup("info", "version").Str(),
	}

	if servers := doc.Get("servers").Items(); len(servers) > 0 {
		info.BaseURL = servers[0].Get("url").Str()
	}

	for _, f := range doc.Lookup("components", "securitySchemes").Fields() {
		scheme := f.Value
		info.SecuritySchemes = append(info.SecuritySchemes, SecurityScheme{
			Name:        f.Key,
			Type:        scheme.Get("type").Str(),
			Description: scheme.Get("description").Str(),
			In:          scheme.Get("in").Str(),
			ParamName:   scheme.Get("name").Str(),
			Scheme:      scheme.Get("scheme").Str(),
		})
	}

	return info
}
