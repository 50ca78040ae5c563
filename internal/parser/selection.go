package parser

import (
	"fmt"

	"github.com/mdwit/spec2mcp/internal/document"
)

// DefaultSelectionKey ключ списка методов в документе выбора
const DefaultSelectionKey = "mcp_methods"

// Selection читает элементы выбора из документа.
// В режиме Lenient отсутствующий список даёт пустой результат,
// а элементы без method пропускаются.
func (b *Builder) Selection(doc *document.Node) ([]SelectionEntry, error) {
	key := b.opts.SelectionKey
	list := doc.Get(key)
	if !list.IsArray() {
		if b.opts.Mode == Strict {
			return nil, fmt.Errorf("%w: %q is not a list", ErrInvalidSelection, key)
		}
		if list != nil {
			b.log.WithField("key", key).Warn("selection key is not a list, nothing to build")
		}
		return []SelectionEntry{}, nil
	}

	entries := make([]SelectionEntry, 0, list.Len())
	for i, item := range list.Items() {
		method := item.Get("method").Str()
		if method == "" {
			if b.opts.Mode == Strict {
				return nil, fmt.Errorf("%w: entry %d has no method", ErrInvalidSelection, i)
			}
			b.log.WithField("index", i).Debug("selection entry has no method, skipping")
			continue
		}
		entries = append(entries, SelectionEntry{
			Method:            method,
			CustomDescription: item.Get("custom_description").Str(),
		})
	}
	return entries, nil
}
