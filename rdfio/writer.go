// Package rdfio implements the canonical N-Triples/N-Quads emitter: one
// statement per line, terms always written in full (no prefixed names),
// the round-trip partner of the turtle package's reader (spec §4.E).
package rdfio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kgcore/rdfstore/rdf"
)

// Writer serializes quads as canonical N-Quads (or N-Triples, if every
// written quad has no graph component).
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter returns a Writer that buffers output to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteQuad writes one quad as a terminated N-Quads line. If q.Graph is
// nil the line has three terms (N-Triples form).
func (enc *Writer) WriteQuad(q rdf.Quad) error {
	if enc.err != nil {
		return enc.err
	}
	enc.writeTerm(q.Subject)
	enc.writeSpace()
	enc.writeTerm(q.Predicate)
	enc.writeSpace()
	enc.writeTerm(q.Object)
	if q.Graph != nil {
		enc.writeSpace()
		enc.writeTerm(q.Graph)
	}
	if enc.err == nil {
		_, enc.err = enc.w.WriteString(" .\n")
	}
	return enc.err
}

func (enc *Writer) writeSpace() {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.WriteString(" ")
}

func (enc *Writer) writeTerm(t rdf.Term) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.WriteString(termString(t))
}

// termString renders t in canonical N-Triples surface syntax. Quoted
// triples render as `<< s p o >>`, the RDF-star extension to the N-Triples
// grammar.
func termString(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return "<" + escapeIRI(string(v)) + ">"
	case rdf.Blank:
		return "_:" + v.Name
	case rdf.Literal:
		return literalString(v)
	case rdf.QuotedTriple:
		return fmt.Sprintf("<< %s %s %s >>", termString(v.Subject), termString(v.Predicate), termString(v.Object))
	default:
		return t.String()
	}
}

func literalString(l rdf.Literal) string {
	s := `"` + escapeLexical(l.Lexical) + `"`
	switch {
	case l.Lang != "":
		s += "@" + l.Lang + l.Dir.String()
	case l.Datatype != "" && l.Datatype != rdf.XSDString:
		s += "^^<" + escapeIRI(string(l.Datatype)) + ">"
	}
	return s
}

func escapeLexical(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		default:
			out = append(out, string(r)...)
		}
	}
	return string(out)
}

func escapeIRI(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch r {
		case '<', '>', '"', '{', '}', '|', '^', '`', '\\':
			out = append(out, fmt.Sprintf("\\u%04X", r)...)
		default:
			out = append(out, string(r)...)
		}
	}
	return string(out)
}

// Flush flushes buffered output and returns the first write error
// encountered, if any.
func (enc *Writer) Flush() error {
	if enc.err != nil {
		return enc.err
	}
	return enc.w.Flush()
}

// WriteAll writes every quad in quads, then flushes.
func WriteAll(w io.Writer, quads []rdf.Quad) error {
	enc := NewWriter(w)
	for _, q := range quads {
		if err := enc.WriteQuad(q); err != nil {
			return err
		}
	}
	return enc.Flush()
}
