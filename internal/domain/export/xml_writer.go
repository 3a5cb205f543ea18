package export

import (
	"fmt"

	"github.com/beevik/etree"
)

// xmlWriter builds an element tree in document order. Elements are only created
// when written, so an optional block that is skipped leaves nothing behind.
type xmlWriter struct {
	doc   *etree.Document
	stack []*etree.Element
}

func newXMLWriter() *xmlWriter {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	// <a></a> rather than <a/>: some validators reject self-closing amounts
	doc.WriteSettings.CanonicalEndTags = true
	return &xmlWriter{doc: doc}
}

type attr struct {
	name  string
	value string
}

func (w *xmlWriter) current() *etree.Element {
	if n := len(w.stack); n > 0 {
		return w.stack[n-1]
	}
	return &w.doc.Element
}

func (w *xmlWriter) element(name string, attrs []attr) *etree.Element {
	el := w.current().CreateElement(name)
	for _, a := range attrs {
		el.CreateAttr(a.name, cleanText(a.value))
	}
	return el
}

func (w *xmlWriter) open(name string, attrs ...attr) {
	w.stack = append(w.stack, w.element(name, attrs))
}

// close ends the innermost open element, which must be name
func (w *xmlWriter) close(name string) {
	n := len(w.stack)
	if n == 0 || w.stack[n-1].FullTag() != name {
		panic(fmt.Sprintf("xml: close %s does not match the open element", name))
	}
	w.stack = w.stack[:n-1]
}

// leaf writes <name>value</name>, rendering an empty element for an empty value
func (w *xmlWriter) leaf(name, value string, attrs ...attr) {
	w.element(name, attrs).SetText(cleanText(value))
}

// optional writes the element only when value is not empty
func (w *xmlWriter) optional(name, value string, attrs ...attr) {
	if value == "" {
		return
	}
	w.leaf(name, value, attrs...)
}

func (w *xmlWriter) String() string {
	w.doc.Indent(2)
	s, err := w.doc.WriteToString()
	if err != nil {
		// writing to an in-memory buffer does not fail
		panic(err)
	}
	return s
}
