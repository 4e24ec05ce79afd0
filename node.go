package docskema

import (
	"sort"
	"strings"
)

// NodeKind identifies a canonical shape node variant.
type NodeKind uint8

const (
	NodePlain NodeKind = iota
	NodeOptional
	NodeAnyOf
	NodeConstrained
	NodeArrayOf
	NodeObject
)

func (k NodeKind) String() string {
	switch k {
	case NodePlain:
		return "plain"
	case NodeOptional:
		return "optional"
	case NodeAnyOf:
		return "anyOf"
	case NodeConstrained:
		return "constrained"
	case NodeArrayOf:
		return "arrayOf"
	case NodeObject:
		return "object"
	}
	return "unknown"
}

// Node is a canonical shape node: a closed tagged union built only through
// the constructors below. Nodes are immutable once built.
type Node struct {
	kind   NodeKind
	typ    Type             // plain
	inner  *Node            // optional, arrayOf, constrained (base)
	alts   []*Node          // anyOf
	fields map[string]*Node // object
	keys   []string         // object, sorted
	quals  Qualifiers       // constrained
}

// PlainNode matches values of a bare type.
func PlainNode(t Type) *Node { return &Node{kind: NodePlain, typ: t} }

// OptionalNode marks inner as optional. It never double-wraps.
func OptionalNode(inner *Node) *Node {
	if inner.kind == NodeOptional {
		return inner
	}
	return &Node{kind: NodeOptional, inner: inner}
}

// AnyOfNode matches when at least one alternative matches.
func AnyOfNode(alts ...*Node) *Node {
	return &Node{kind: NodeAnyOf, alts: append([]*Node(nil), alts...)}
}

// ConstrainedNode checks base structurally, then applies qualifiers.
func ConstrainedNode(base *Node, q Qualifiers) *Node {
	return &Node{kind: NodeConstrained, inner: base, quals: q}
}

// ArrayNode matches arrays whose every element matches elem.
func ArrayNode(elem *Node) *Node { return &Node{kind: NodeArrayOf, inner: elem} }

// ObjectNode matches objects with the given fields. Fields not wrapped in
// OptionalNode are required.
func ObjectNode(fields map[string]*Node) *Node {
	fs := make(map[string]*Node, len(fields))
	keys := make([]string, 0, len(fields))
	for k, n := range fields {
		fs[k] = n
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Node{kind: NodeObject, fields: fs, keys: keys}
}

func (n *Node) Kind() NodeKind { return n.kind }

// Type returns the tag of a plain node.
func (n *Node) Type() Type { return n.typ }

// Inner returns the wrapped node of optional and arrayOf nodes, and the base
// of constrained nodes.
func (n *Node) Inner() *Node { return n.inner }

func (n *Node) Alternatives() []*Node { return n.alts }

func (n *Node) Qualifiers() Qualifiers { return n.quals }

// Keys returns the sorted field names of an object node.
func (n *Node) Keys() []string { return n.keys }

// Field returns the node of an object field.
func (n *Node) Field(name string) (*Node, bool) {
	f, ok := n.fields[name]
	return f, ok
}

// IsOptional reports whether the node may be absent.
func (n *Node) IsOptional() bool { return n.kind == NodeOptional }

// unwrap strips an optional wrapper.
func (n *Node) unwrap() *Node {
	if n.kind == NodeOptional {
		return n.inner
	}
	return n
}

// String renders the node in a canonical text form. Two shapes of the same
// description render identically.
func (n *Node) String() string {
	b := &strings.Builder{}
	n.render(b)
	return b.String()
}

func (n *Node) render(b *strings.Builder) {
	switch n.kind {
	case NodePlain:
		b.WriteString(string(n.typ))
	case NodeOptional:
		b.WriteString("optional(")
		n.inner.render(b)
		b.WriteString(")")
	case NodeAnyOf:
		b.WriteString("anyOf(")
		for i, a := range n.alts {
			if i > 0 {
				b.WriteString("|")
			}
			a.render(b)
		}
		b.WriteString(")")
	case NodeConstrained:
		b.WriteString("constrained(")
		n.inner.render(b)
		b.WriteString(";")
		b.WriteString(n.quals.String())
		b.WriteString(")")
	case NodeArrayOf:
		b.WriteString("[")
		n.inner.render(b)
		b.WriteString("]")
	case NodeObject:
		b.WriteString("{")
		for i, k := range n.keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k)
			b.WriteString(":")
			n.fields[k].render(b)
		}
		b.WriteString("}")
	}
}
