package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"evmc/internal/diag"
)

// element is a namespace-stripped XML element with its source location.
type element struct {
	name     string
	attrs    map[string]string
	loc      diag.Location
	children []*element
}

func (e *element) attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// all returns the direct children with the given local name.
func (e *element) all(name string) []*element {
	var out []*element
	for _, c := range e.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// first returns the first direct child with the given local name.
func (e *element) first(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// path follows a chain of first-child lookups.
func (e *element) path(names ...string) *element {
	cur := e
	for _, n := range names {
		if cur == nil {
			return nil
		}
		cur = cur.first(n)
	}
	return cur
}

// readTree decodes the whole document. Each element records the line and
// column at which its start tag begins.
func readTree(file string, data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *element
	var stack []*element
	for {
		line, col := dec.InputPos()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, syntaxError(file, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{
				name:  t.Name.Local,
				attrs: make(map[string]string, len(t.Attr)),
				loc:   diag.Location{File: file, Line: line, Column: col},
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%s: multiple root elements", file)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%s: empty document", file)
	}
	return root, nil
}

// syntaxError keeps the decoder's line number in the diagnostic location form.
func syntaxError(file string, err error) error {
	if se, ok := err.(*xml.SyntaxError); ok {
		return &LocatedError{Location: diag.Location{File: file, Line: se.Line}, Message: strings.TrimPrefix(se.Msg, "xml: ")}
	}
	return fmt.Errorf("%s: %w", file, err)
}

// LocatedError is a parse failure tied to a source position.
type LocatedError struct {
	Location diag.Location
	Message  string
}

func (e *LocatedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}
