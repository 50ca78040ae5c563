package document

import "strings"

// Resolver разрешает локальные указатели вида #/components/schemas/Name
type Resolver struct {
	root *Node
}

func NewResolver(root *Node) *Resolver {
	return &Resolver{root: root}
}

// Resolve спускается от корня по сегментам указателя.
// Сегмент это буквальный ключ объекта. Если ключа нет, возвращается
// узел KindUnresolved, который сериализуется как {}.
// Указатели на внешние документы (без ведущего '#') не разрешаются.
func (r *Resolver) Resolve(pointer string) *Node {
	if !strings.HasPrefix(pointer, "#") {
		return Unresolved(pointer)
	}

	node := r.root
	for _, segment := range strings.Split(pointer, "/")[1:] {
		next := node.Get(segment)
		if next == nil {
			return Unresolved(pointer)
		}
		node = next
	}
	return node
}

// Deref возвращает цель $ref и сам указатель.
// Узел без $ref возвращается как есть с пустым указателем.
func (r *Resolver) Deref(node *Node) (*Node, string) {
	ref, ok := node.Ref()
	if !ok {
		return node, ""
	}
	return r.Resolve(ref), ref
}
