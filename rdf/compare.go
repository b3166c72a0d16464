package rdf

import (
	"strconv"
	"strings"
	"time"
)

// kindOrder fixes the cross-kind ordering spec §4.H requires for ORDER BY:
// blanks < IRIs < literals. Variables and quoted triples never reach a
// result set ordering comparison in practice, but are given a stable
// position so Compare is total.
func kindOrder(k Kind) int {
	switch k {
	case KindBlank:
		return 0
	case KindIRI:
		return 1
	case KindLiteral:
		return 2
	case KindQuoted:
		return 3
	case KindVariable:
		return 4
	default:
		return 5
	}
}

// Compare implements the total term ordering used by ORDER BY: blanks <
// IRIs < literals (literals ordered first by datatype, then by value for
// comparable numeric/date types, else lexically). It is not SPARQL "<"
// (which raises type errors across incompatible datatypes) — Compare
// always produces an order, falling back to lexical string comparison
// when no value order applies.
func Compare(a, b Term) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	ka, kb := kindOrder(a.Kind()), kindOrder(b.Kind())
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case Literal:
		bv := b.(Literal)
		return compareLiterals(av, bv)
	default:
		return strings.Compare(a.String(), b.String())
	}
}

func compareLiterals(a, b Literal) int {
	if a.Datatype != b.Datatype {
		return strings.Compare(string(a.Datatype), string(b.Datatype))
	}
	if a.IsNumeric() && b.IsNumeric() {
		av, aerr := strconv.ParseFloat(a.Lexical, 64)
		bv, berr := strconv.ParseFloat(b.Lexical, 64)
		if aerr == nil && berr == nil {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	}
	if isDateTimeType(a.Datatype) {
		at, aerr := time.Parse(time.RFC3339, a.Lexical)
		bt, berr := time.Parse(time.RFC3339, b.Lexical)
		if aerr == nil && berr == nil {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(a.Lexical, b.Lexical)
}

func isDateTimeType(dt IRI) bool {
	return dt == XSDDateTime || dt == XSDDate || dt == XSDTime
}

// ValueEqual implements the "=" operator's value equality: literals
// compare equal if they are in the same datatype family and their values
// coincide; cross-family comparisons are left to the caller to treat as a
// type error (spec §4.I: "cross-family comparisons produce type errors").
// ValueEqual itself never errors — it returns (equal, comparable); when
// comparable is false the caller must raise a type error.
func ValueEqual(a, b Term) (equal bool, comparable bool) {
	if a == nil || b == nil {
		return false, true
	}
	if a.Kind() != b.Kind() {
		return false, false
	}
	switch av := a.(type) {
	case IRI, Blank, Variable:
		return a.Equal(b), true
	case QuotedTriple:
		return a.Equal(b), true
	case Literal:
		bv := b.(Literal)
		return valueEqualLiterals(av, bv)
	default:
		return false, false
	}
}

func valueEqualLiterals(a, b Literal) (bool, bool) {
	if a.IsNumeric() && b.IsNumeric() {
		av, aerr := strconv.ParseFloat(a.Lexical, 64)
		bv, berr := strconv.ParseFloat(b.Lexical, 64)
		if aerr != nil || berr != nil {
			return false, false
		}
		return av == bv, true
	}
	if isDateTimeType(a.Datatype) && isDateTimeType(b.Datatype) {
		at, aerr := time.Parse(time.RFC3339, a.Lexical)
		bt, berr := time.Parse(time.RFC3339, b.Lexical)
		if aerr != nil || berr != nil {
			return false, false
		}
		return at.Equal(bt), true
	}
	if a.Datatype == XSDBoolean && b.Datatype == XSDBoolean {
		return strings.EqualFold(a.Lexical, b.Lexical), true
	}
	if a.Datatype != b.Datatype {
		// Plain string vs langString, or unrelated datatypes: not
		// comparable by value equality.
		return false, false
	}
	if a.Lang != b.Lang || a.Dir != b.Dir {
		return false, true
	}
	return a.Lexical == b.Lexical, true
}
