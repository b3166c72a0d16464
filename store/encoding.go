package store

import (
	"encoding/binary"
	"fmt"

	"github.com/kgcore/rdfstore/rdf"
)

// Term type tags for the self-delimiting encoding (spec §4.D): a single
// type byte, then a varint length, then the payload bytes. A quoted
// triple instead carries its type byte, a nesting-depth byte, and its
// three sub-terms encoded one after another.
//
// Byte order between kinds only needs to be total and fixed across all
// four indexes (spec §4.D); it is not required to match rdf.Compare's
// cross-kind ORDER BY ordering, which is a separate, query-level concern.
const (
	tagIRI byte = iota + 1
	tagBlank
	tagLiteralPlain
	tagLiteralLang
	tagLiteralTyped
	tagQuoted
)

// maxQuoteDepth bounds quoted-triple nesting so a corrupt or adversarial
// key can't recurse unboundedly during decode.
const maxQuoteDepth = 64

// encodeTerm appends the self-delimiting encoding of t to buf and returns
// the result.
func encodeTerm(buf []byte, t rdf.Term) ([]byte, error) {
	return encodeTermDepth(buf, t, 0)
}

func encodeTermDepth(buf []byte, t rdf.Term, depth int) ([]byte, error) {
	if depth > maxQuoteDepth {
		return nil, fmt.Errorf("store: quoted triple nesting exceeds %d", maxQuoteDepth)
	}
	switch v := t.(type) {
	case rdf.IRI:
		return appendTagged(buf, tagIRI, []byte(v)), nil
	case rdf.Blank:
		return appendTagged(buf, tagBlank, encodeBlank(v)), nil
	case rdf.Literal:
		return encodeLiteral(buf, v), nil
	case rdf.QuotedTriple:
		buf = append(buf, tagQuoted, byte(depth+1))
		var err error
		buf, err = encodeTermDepth(buf, v.Subject, depth+1)
		if err != nil {
			return nil, err
		}
		buf, err = encodeTermDepth(buf, v.Predicate, depth+1)
		if err != nil {
			return nil, err
		}
		buf, err = encodeTermDepth(buf, v.Object, depth+1)
		if err != nil {
			return nil, err
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("store: cannot encode term of kind %v", t.Kind())
	}
}

func appendTagged(buf []byte, tag byte, payload []byte) []byte {
	buf = append(buf, tag)
	var lenbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenbuf[:], uint64(len(payload)))
	buf = append(buf, lenbuf[:n]...)
	buf = append(buf, payload...)
	return buf
}

func encodeBlank(b rdf.Blank) []byte {
	var scope [8]byte
	binary.BigEndian.PutUint64(scope[:], b.Scope)
	out := make([]byte, 0, 8+len(b.Name))
	out = append(out, scope[:]...)
	out = append(out, b.Name...)
	return out
}

func encodeLiteral(buf []byte, l rdf.Literal) []byte {
	switch {
	case l.Lang != "":
		payload := make([]byte, 0, len(l.Lexical)+1+len(l.Lang)+1)
		payload = append(payload, byte(l.Dir))
		payload = append(payload, l.Lang...)
		payload = append(payload, 0)
		payload = append(payload, l.Lexical...)
		return appendTagged(buf, tagLiteralLang, payload)
	case l.Datatype == rdf.XSDString || l.Datatype == "":
		return appendTagged(buf, tagLiteralPlain, []byte(l.Lexical))
	default:
		payload := make([]byte, 0, len(l.Datatype)+1+len(l.Lexical))
		payload = append(payload, l.Datatype...)
		payload = append(payload, 0)
		payload = append(payload, l.Lexical...)
		return appendTagged(buf, tagLiteralTyped, payload)
	}
}

// decodeTerm reads one self-delimiting term off the front of buf and
// returns it along with the number of bytes consumed.
func decodeTerm(buf []byte) (rdf.Term, int, error) {
	return decodeTermDepth(buf, 0)
}

func decodeTermDepth(buf []byte, depth int) (rdf.Term, int, error) {
	if depth > maxQuoteDepth {
		return nil, 0, fmt.Errorf("store: quoted triple nesting exceeds %d", maxQuoteDepth)
	}
	if len(buf) == 0 {
		return nil, 0, fmt.Errorf("store: empty term encoding")
	}
	tag := buf[0]
	if tag == tagQuoted {
		if len(buf) < 2 {
			return nil, 0, fmt.Errorf("store: truncated quoted triple")
		}
		pos := 2
		s, n, err := decodeTermDepth(buf[pos:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		pos += n
		p, n, err := decodeTermDepth(buf[pos:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		pos += n
		o, n, err := decodeTermDepth(buf[pos:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		pos += n
		return rdf.QuotedTriple{Subject: s, Predicate: p, Object: o}, pos, nil
	}

	length, n := binary.Uvarint(buf[1:])
	if n <= 0 {
		return nil, 0, fmt.Errorf("store: malformed length varint")
	}
	start := 1 + n
	end := start + int(length)
	if end > len(buf) {
		return nil, 0, fmt.Errorf("store: truncated term payload")
	}
	payload := buf[start:end]
	consumed := end

	switch tag {
	case tagIRI:
		return rdf.IRI(string(payload)), consumed, nil
	case tagBlank:
		if len(payload) < 8 {
			return nil, 0, fmt.Errorf("store: truncated blank node payload")
		}
		scope := binary.BigEndian.Uint64(payload[:8])
		return rdf.Blank{Scope: scope, Name: string(payload[8:])}, consumed, nil
	case tagLiteralPlain:
		return rdf.NewLiteral(string(payload)), consumed, nil
	case tagLiteralLang:
		dir := rdf.Direction(payload[0])
		rest := payload[1:]
		nul := indexByte(rest, 0)
		lang := string(rest[:nul])
		lexical := string(rest[nul+1:])
		return rdf.NewLangLiteral(lexical, lang, dir), consumed, nil
	case tagLiteralTyped:
		nul := indexByte(payload, 0)
		dt := rdf.IRI(string(payload[:nul]))
		lexical := string(payload[nul+1:])
		return rdf.NewTypedLiteral(lexical, dt), consumed, nil
	default:
		return nil, 0, fmt.Errorf("store: unknown term tag %d", tag)
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return len(b)
}
