package transport

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Node is one element of a decoded XML document.
type Node struct {
	XMLName xml.Name
	Content string `xml:",chardata"`
	Nodes   []Node `xml:",any"`
}

// ParseXML decodes body into a Node tree rooted at the document element.
func ParseXML(body []byte) (*Node, error) {
	var root Node
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&root); err != nil {
		return nil, &ParseError{Message: "decode xml response", Err: err}
	}
	return &root, nil
}

// Text returns the trimmed character data of the node.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Content)
}

// Children returns the direct child elements.
func (n *Node) Children() []Node {
	if n == nil {
		return nil
	}
	return n.Nodes
}

// Find returns the first descendant named {space}local, in document order.
// It mirrors the ".//{space}local" path query.
func (n *Node) Find(space, local string) *Node {
	if n == nil {
		return nil
	}
	for i := range n.Nodes {
		child := &n.Nodes[i]
		if child.XMLName.Space == space && child.XMLName.Local == local {
			return child
		}
		if found := child.Find(space, local); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant named {space}local, in document order.
func (n *Node) FindAll(space, local string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for i := range n.Nodes {
		child := &n.Nodes[i]
		if child.XMLName.Space == space && child.XMLName.Local == local {
			out = append(out, child)
		}
		out = append(out, child.FindAll(space, local)...)
	}
	return out
}
