package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mdwit/spec2mcp/internal/config"
	"github.com/mdwit/spec2mcp/internal/document"
	"github.com/mdwit/spec2mcp/internal/parser"
)

// Generator выводит описания методов в выбранном формате
type Generator struct {
	cfg     *config.Config
	info    Info
	methods []parser.MethodDescriptor
}

// New создаёт новый генератор
func New(cfg *config.Config, info Info, methods []parser.MethodDescriptor) *Generator {
	return &Generator{cfg: cfg, info: info, methods: methods}
}

// Render пишет описания в w в формате text, json или yaml
func (g *Generator) Render(w io.Writer) error {
	switch g.cfg.Format {
	case config.FormatText, "":
		_, err := io.WriteString(w, g.generateReport())
		return err
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g.methods)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g.methods); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot be written to a stream", g.cfg.Format)
	}
}

// Generate пишет llms.txt и файлы групп методов в каталог вывода
func (g *Generator) Generate() error {
	outputDir := g.cfg.OutputDir()
	methodsDir := filepath.Join(outputDir, "methods")
	if err := os.MkdirAll(methodsDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	grouped := g.groupByPath()

	for group, methods := range grouped {
		path := filepath.Join(methodsDir, group+".txt")
		content := g.generateGroupFile(group, methods)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	indexPath := filepath.Join(outputDir, "llms.txt")
	indexContent := g.generateIndex(grouped)
	if err := os.WriteFile(indexPath, []byte(indexContent), 0644); err != nil {
		return fmt.Errorf("failed to write llms.txt: %w", err)
	}

	return nil
}

// generateReport повторяет построчный отчёт: метод, описания, параметры, ответ 200, пример
func (g *Generator) generateReport() string {
	var sb strings.Builder

	for _, m := range g.methods {
		sb.WriteString("Method: " + m.Method + "\n")
		sb.WriteString("  Method Type: " + m.MethodType.String() + "\n")
		sb.WriteString("  Short Description: " + m.ShortDescription + "\n")
		sb.WriteString("  Full Description: " + m.FullDescription + "\n")
		sb.WriteString("  Custom Description: " + m.CustomDescription + "\n")
		sb.WriteString("  Parameters:\n")
		if len(m.Parameters) == 0 {
			sb.WriteString("    (None)\n")
		}
		for _, p := range m.Parameters {
			sb.WriteString(fmt.Sprintf("    - Name: %s, In: %s, Required: %t\n", p.Name, p.In, p.Required))
			sb.WriteString("      Schema: " + indentJSON(p.Schema, "        ") + "\n")
		}
		sb.WriteString("  Response (200):\n")
		sb.WriteString("    Description: " + m.ResponseDescription + "\n")
		sb.WriteString("    Schema: " + indentJSON(m.ResponseSchema, "        ") + "\n")
		sb.WriteString("  Example Request:\n")
		sb.WriteString("    " + indentJSON(m.ExampleRequest, "        ") + "\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
	}

	return sb.String()
}

func indentJSON(n *document.Node, indent string) string {
	data, err := json.MarshalIndent(n, "", indent)
	if err != nil {
		return n.String()
	}
	return string(data)
}

func (g *Generator) groupByPath() map[string][]parser.MethodDescriptor {
	grouped := make(map[string][]parser.MethodDescriptor)
	for _, m := range g.methods {
		group := groupName(m.Method)
		grouped[group] = append(grouped[group], m)
	}
	return grouped
}

var versionSegment = regexp.MustCompile(`^v\d+(\.\d+)*$`)

// groupName первый значимый сегмент пути: без api, версий и параметров {id}
func groupName(path string) string {
	for _, part := range strings.Split(path, "/") {
		if part == "" || strings.HasPrefix(part, "{") || part == "api" || versionSegment.MatchString(part) {
			continue
		}
		return sanitizeFilename(part)
	}
	return "root"
}

func sanitizeFilename(name string) string {
	// Заменяем пробелы и спецсимволы на дефисы
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	return name
}

func (g *Generator) generateIndex(grouped map[string][]parser.MethodDescriptor) string {
	var sb strings.Builder

	title := g.cfg.Title
	if title == "" {
		title = g.info.Title
	}
	if title == "" {
		title = "API methods"
	}
	sb.WriteString("# " + title + "\n\n")

	if g.info.Description != "" {
		sb.WriteString("> " + g.info.Description + "\n\n")
	}

	if baseURL := g.baseURL(); baseURL != "" {
		sb.WriteString("Base URL: `" + baseURL + "`\n\n")
	}

	if g.info.Version != "" {
		sb.WriteString("Version: " + g.info.Version + "\n\n")
	}

	if len(g.info.SecuritySchemes) > 0 {
		sb.WriteString("## Authentication\n\n")
		for _, scheme := range g.info.SecuritySchemes {
			sb.WriteString(formatSecurityScheme(scheme))
		}
	}

	sb.WriteString("## Methods\n\n")

	groups := make([]string, 0, len(grouped))
	for group := range grouped {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	for _, group := range groups {
		methods := grouped[group]
		sb.WriteString(fmt.Sprintf("- [%s](./methods/%s.txt) — %d methods\n", group, group, len(methods)))
		for _, m := range methods {
			line := fmt.Sprintf("  - %s %s", strings.ToUpper(m.MethodType.String()), m.Method)
			if m.ShortDescription != "" {
				line += ": " + m.ShortDescription
			}
			sb.WriteString(line + "\n")
		}
	}

	return sb.String()
}

func (g *Generator) generateGroupFile(group string, methods []parser.MethodDescriptor) string {
	var sb strings.Builder

	sb.WriteString("# " + group + "\n\n")

	for i, m := range methods {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		sb.WriteString(g.generateMethod(m))
	}

	return sb.String()
}

func (g *Generator) generateMethod(m parser.MethodDescriptor) string {
	var sb strings.Builder

	header := fmt.Sprintf("## %s %s", strings.ToUpper(m.MethodType.String()), m.Method)
	if m.ShortDescription != "" {
		header += " - " + m.ShortDescription
	}
	sb.WriteString(header + "\n\n")

	if m.FullDescription != "" {
		sb.WriteString(m.FullDescription + "\n\n")
	}
	if m.CustomDescription != "" {
		sb.WriteString("> " + m.CustomDescription + "\n\n")
	}

	if len(m.Parameters) > 0 {
		sb.WriteString("### Parameters\n\n")
		sb.WriteString("| Name | In | Type | Required | Description |\n")
		sb.WriteString("|------|-----|------|----------|-------------|\n")
		for _, p := range m.Parameters {
			required := ""
			if p.Required {
				required = "✓"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				p.Name, p.In, schemaType(p.Schema), required, p.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Response\n\n")
	if m.ResponseDescription != "" {
		sb.WriteString("**200** - " + m.ResponseDescription + "\n\n")
	}
	if m.ResponseSchema.Len() > 0 {
		sb.WriteString("```json\n" + indentJSON(m.ResponseSchema, "  ") + "\n```\n\n")
	}

	if m.ExampleRequest.Len() > 0 {
		sb.WriteString("### Example Request\n\n")
		sb.WriteString("```json\n" + indentJSON(m.ExampleRequest, "  ") + "\n```\n\n")
	}

	sb.WriteString("### Example\n\n")
	sb.WriteString(g.generateCurlExample(m))

	return sb.String()
}

func schemaType(schema *document.Node) string {
	typ := schema.Get("type").Str()
	switch typ {
	case "":
		if schema.IsUnresolved() {
			return "unresolved"
		}
		return "-"
	case "array":
		if item := schema.Lookup("items", "type").Str(); item != "" {
			return "array[" + item + "]"
		}
	}
	return typ
}

func (g *Generator) baseURL() string {
	if g.cfg.BaseURL != "" {
		return g.cfg.BaseURL
	}
	return g.info.BaseURL
}

// generateCurlExample: GET и DELETE передают пример в параметре q,
// POST и PUT в теле запроса
func (g *Generator) generateCurlExample(m parser.MethodDescriptor) string {
	var sb strings.Builder

	baseURL := g.baseURL()
	if baseURL == "" || strings.HasPrefix(baseURL, "/") {
		baseURL = "https://api.example.com" + baseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	path := m.Method
	for _, p := range m.Parameters {
		if p.In != "path" {
			continue
		}
		example := "example"
		if p.Schema.Get("type").Str() == "integer" {
			example = "1"
		}
		path = strings.ReplaceAll(path, "{"+p.Name+"}", example)
	}

	target := baseURL + path
	hasExample := m.ExampleRequest.Len() > 0
	if hasExample && (m.MethodType == parser.Get || m.MethodType == parser.Delete) {
		target += "?q=" + url.QueryEscape(m.ExampleRequest.String())
	}

	sb.WriteString("```bash\n")
	sb.WriteString(fmt.Sprintf("curl -X %s \"%s\"", strings.ToUpper(m.MethodType.String()), target))
	sb.WriteString(" \\\n  -H \"Content-Type: application/json\"")

	for _, scheme := range g.info.SecuritySchemes {
		if scheme.Type == "apiKey" && scheme.In == "header" {
			sb.WriteString(fmt.Sprintf(" \\\n  -H \"%s: YOUR_API_KEY\"", scheme.ParamName))
			break
		} else if scheme.Type == "http" && scheme.Scheme == "bearer" {
			sb.WriteString(" \\\n  -H \"Authorization: Bearer YOUR_TOKEN\"")
			break
		}
	}

	if hasExample && (m.MethodType == parser.Post || m.MethodType == parser.Put) {
		sb.WriteString(" \\\n  -d '" + m.ExampleRequest.String() + "'")
	}

	sb.WriteString("\n```\n\n")
	return sb.String()
}

func formatSecurityScheme(scheme SecurityScheme) string {
	var sb strings.Builder

	sb.WriteString("### " + scheme.Name + "\n\n")

	if scheme.Description != "" {
		sb.WriteString(scheme.Description + "\n\n")
	}

	switch scheme.Type {
	case "apiKey":
		sb.WriteString("- **Type**: API Key\n")
		sb.WriteString(fmt.Sprintf("- **Parameter**: `%s`\n", scheme.ParamName))
		sb.WriteString(fmt.Sprintf("- **In**: %s\n", scheme.In))
	case "http":
		sb.WriteString(fmt.Sprintf("- **Type**: HTTP %s\n", scheme.Scheme))
		if scheme.Scheme == "bearer" {
			sb.WriteString("- **Header**: `Authorization: Bearer <token>`\n")
		} else if scheme.Scheme == "basic" {
			sb.WriteString("- **Header**: `Authorization: Basic <credentials>`\n")
		}
	case "oauth2":
		sb.WriteString("- **Type**: OAuth 2.0\n")
	case "openIdConnect":
		sb.WriteString("- **Type**: OpenID Connect\n")
	}

	sb.WriteString("\n")
	return sb.String()
}
