// Package xmlnode implements the mutable XML DOM that spec.md §6 names
// as an external collaborator ("destructive node operations: replace
// with list, set attribute, remove attribute, clone deep, children
// iteration, node-type discrimination"). Go's encoding/xml only exposes
// a token stream, and the one read-only tree library in the retrieval
// pack (xmltree) has no parent pointers and cannot support in-place
// splice/replace, so this package builds a small parent-linked tree on
// top of encoding/xml's Decoder/Encoder, borrowing xmltree's namespace
// Scope/resolution idea.
package xmlnode

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// NodeType discriminates the three node kinds the walker cares about
// (spec.md §4.4: element, text, comment).
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
)

// Attr is a single attribute, order-preserved as it appeared in source.
type Attr struct {
	Name  xml.Name
	Value string
}

// Node is one element, text run, or comment in the tree. Elements own
// their Children and a back-pointer to Parent so that Remove/Replace/
// Splice can mutate the tree in place, as spec.md §4 requires.
type Node struct {
	Type     NodeType
	Name     xml.Name // only meaningful for ElementNode
	Attrs    []Attr   // only meaningful for ElementNode
	Data     string   // only meaningful for TextNode/CommentNode
	Parent   *Node
	Children []*Node

	// NSDecls holds the xmlns / xmlns:prefix declarations carried by
	// this element, separately from Attrs, so namespace hoisting
	// (spec.md §4.3/§9) can be implemented without scanning Attrs by
	// string prefix.
	NSDecls map[string]string // prefix ("" = default) -> URI
}

// NewElement creates a detached element node.
func NewElement(name xml.Name) *Node {
	return &Node{Type: ElementNode, Name: name, NSDecls: map[string]string{}}
}

// NewText creates a detached text node.
func NewText(data string) *Node { return &Node{Type: TextNode, Data: data} }

// NewComment creates a detached comment node.
func NewComment(data string) *Node { return &Node{Type: CommentNode, Data: data} }

// Attr returns the value of the first attribute whose local name
// matches local (namespace-agnostic lookup), and whether it was found.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrNS returns the value of the attribute matching both space and
// local name; if space is empty, only the local name is considered.
func (n *Node) AttrNS(space, local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local != local {
			continue
		}
		if space == "" || a.Name.Space == space {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets (or overwrites) an attribute by local name, preserving
// source order for existing attributes and appending new ones.
func (n *Node) SetAttr(local, value string) {
	for i, a := range n.Attrs {
		if a.Name.Local == local {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: xml.Name{Local: local}, Value: value})
}

// RemoveAttr deletes an attribute by local name, if present.
func (n *Node) RemoveAttr(local string) {
	for i, a := range n.Attrs {
		if a.Name.Local == local {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// IndexInParent returns this node's index among its parent's children,
// or -1 if detached.
func (n *Node) IndexInParent() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// PreviousSibling returns the sibling immediately before n, or nil.
func (n *Node) PreviousSibling() *Node {
	i := n.IndexInParent()
	if i <= 0 {
		return nil
	}
	return n.Parent.Children[i-1]
}

// NextSibling returns the sibling immediately after n, or nil.
func (n *Node) NextSibling() *Node {
	i := n.IndexInParent()
	if i < 0 || i+1 >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[i+1]
}

// FirstChildElement returns the first Children entry that is an
// ElementNode, or nil.
func (n *Node) FirstChildElement() *Node {
	for _, c := range n.Children {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// NextSiblingElement returns the next ElementNode sibling after n, or nil.
func (n *Node) NextSiblingElement() *Node {
	s := n.NextSibling()
	for s != nil && s.Type != ElementNode {
		s = s.NextSibling()
	}
	return s
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	if n.Parent == nil {
		return
	}
	i := n.IndexInParent()
	if i < 0 {
		return
	}
	n.Parent.Children = append(n.Parent.Children[:i], n.Parent.Children[i+1:]...)
	n.Parent = nil
}

// ReplaceWith replaces n, in its parent's children, with replacement
// (a possibly-empty list of nodes). Each replacement node's Parent is
// set to n's former parent. This is the core "destructive node
// operation" the spec calls for (§4.3 include/macro-call/insert_block,
// §4.4 step 6).
func (n *Node) ReplaceWith(replacement []*Node) {
	if n.Parent == nil {
		return
	}
	parent := n.Parent
	i := n.IndexInParent()
	if i < 0 {
		return
	}
	for _, r := range replacement {
		r.Parent = parent
	}
	newChildren := make([]*Node, 0, len(parent.Children)-1+len(replacement))
	newChildren = append(newChildren, parent.Children[:i]...)
	newChildren = append(newChildren, replacement...)
	newChildren = append(newChildren, parent.Children[i+1:]...)
	parent.Children = newChildren
	n.Parent = nil
}

// AppendChild appends child to n's Children, setting its Parent.
func (n *Node) AppendChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// InsertBefore inserts newNode immediately before ref in ref's parent's
// children (ref must be a child of n). Used for the sentinel empty-text
// insertion of spec.md §4.4 step 6.
func (n *Node) InsertBefore(newNode, ref *Node) {
	idx := ref.IndexInParent()
	if idx < 0 {
		n.AppendChild(newNode)
		return
	}
	newNode.Parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[idx+1:], n.Children[idx:])
	n.Children[idx] = newNode
}

// Clone returns a deep copy of n, detached from any parent (the
// "clone deep" collaborator operation of spec.md §6, used when
// expanding a macro body or re-inserting a block parameter).
func (n *Node) Clone() *Node {
	clone := &Node{
		Type: n.Type,
		Name: n.Name,
		Data: n.Data,
	}
	if n.Attrs != nil {
		clone.Attrs = append([]Attr{}, n.Attrs...)
	}
	if n.NSDecls != nil {
		clone.NSDecls = make(map[string]string, len(n.NSDecls))
		for k, v := range n.NSDecls {
			clone.NSDecls[k] = v
		}
	}
	for _, c := range n.Children {
		clone.AppendChild(c.Clone())
	}
	return clone
}

// QualifiedName renders the element's tag as "{namespace-URI}local", or
// as the bare local name when the element has no namespace; the walker
// operates on local names directly so this is used only for error and
// debug messages (Write does not use it).
func (n *Node) QualifiedName() string {
	if n.Name.Space == "" {
		return n.Name.Local
	}
	return fmt.Sprintf("{%s}%s", n.Name.Space, n.Name.Local)
}

// String renders a debug form of the node, for test failures and log
// messages (not the serializer — see Write).
func (n *Node) String() string {
	switch n.Type {
	case ElementNode:
		return "<" + n.QualifiedName() + ">"
	case TextNode:
		return strings.TrimSpace(n.Data)
	case CommentNode:
		return "<!--" + n.Data + "-->"
	}
	return ""
}

// Parse decodes r into a Node tree rooted at the document's single
// top-level element, preserving namespace declarations, comments, and
// attribute order (spec.md §6's "conforming XML 1.0 parser with
// namespace and comment preservation").
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{Type: ElementNode, Name: t.Name, NSDecls: map[string]string{}}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" {
					el.NSDecls[a.Name.Local] = a.Value
					continue
				}
				if a.Name.Local == "xmlns" && a.Name.Space == "" {
					el.NSDecls[""] = a.Value
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Name: a.Name, Value: a.Value})
			}
			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.AppendChild(el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.AppendChild(NewText(string(t)))
		case xml.Comment:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.AppendChild(NewComment(string(t)))
		}
	}
	if root == nil {
		return nil, fmt.Errorf("xmlnode: no root element found")
	}
	return root, nil
}

// Write serializes n (and its subtree) as XML to w, reinstating
// namespace declarations from NSDecls on each element that carries them.
func Write(w io.Writer, n *Node) error {
	enc := xml.NewEncoder(w)
	if err := writeNode(enc, n); err != nil {
		return err
	}
	return enc.Flush()
}

func writeNode(enc *xml.Encoder, n *Node) error {
	switch n.Type {
	case TextNode:
		return enc.EncodeToken(xml.CharData(n.Data))
	case CommentNode:
		return enc.EncodeToken(xml.Comment(n.Data))
	case ElementNode:
		start := xml.StartElement{Name: n.Name}
		for prefix, uri := range n.NSDecls {
			name := xml.Name{Local: "xmlns"}
			if prefix != "" {
				name = xml.Name{Local: "xmlns:" + prefix}
			}
			start.Attr = append(start.Attr, xml.Attr{Name: name, Value: uri})
		}
		start.Attr = append(start.Attr, rawAttrs(n.Attrs)...)
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := writeNode(enc, c); err != nil {
				return err
			}
		}
		return enc.EncodeToken(xml.EndElement{Name: n.Name})
	}
	return nil
}

func rawAttrs(attrs []Attr) []xml.Attr {
	out := make([]xml.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = xml.Attr{Name: a.Name, Value: a.Value}
	}
	return out
}
