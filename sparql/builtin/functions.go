package builtin

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"

	"github.com/kgcore/rdfstore/internal/errs"
	"github.com/kgcore/rdfstore/rdf"
)

// builtinFuncs is the fixed SPARQL 1.1/1.2 scalar function library (spec
// §4.I), keyed by the uppercase keyword the parser already normalizes to
// in expr.go's builtinOrAggregate. Logical connectives, IF, COALESCE, and
// BOUND are handled directly in eval.go's evalCall (they need
// lazy/special-cased argument evaluation); everything here receives
// already-evaluated arguments.
var builtinFuncs = map[string]Func{
	"STR":            fnStr,
	"LANG":           fnLang,
	"LANGMATCHES":    fnLangMatches,
	"DATATYPE":       fnDatatype,
	"IRI":            fnIRI,
	"URI":            fnIRI,
	"BNODE":          fnBNode,
	"ISIRI":          fnIsIRI,
	"ISURI":          fnIsIRI,
	"ISBLANK":        fnIsBlank,
	"ISLITERAL":      fnIsLiteral,
	"ISNUMERIC":      fnIsNumeric,
	"SAMETERM":       fnSameTerm,
	"STRDT":          fnStrDT,
	"STRLANG":        fnStrLang,
	"ABS":            fnAbs,
	"CEIL":           fnCeil,
	"FLOOR":          fnFloor,
	"ROUND":          fnRound,
	"STRLEN":         fnStrLen,
	"UCASE":          fnUCase,
	"LCASE":          fnLCase,
	"SUBSTR":         fnSubstr,
	"CONCAT":         fnConcat,
	"CONTAINS":       fnContains,
	"STRSTARTS":      fnStrStarts,
	"STRENDS":        fnStrEnds,
	"STRBEFORE":      fnStrBefore,
	"STRAFTER":       fnStrAfter,
	"REPLACE":        fnReplace,
	"REGEX":          fnRegex,
	"ENCODE_FOR_URI": fnEncodeForURI,
	"YEAR":           fnYear,
	"MONTH":          fnMonth,
	"DAY":            fnDay,
	"HOURS":          fnHours,
	"MINUTES":        fnMinutes,
	"SECONDS":        fnSeconds,
	"TIMEZONE":       fnTimezone,
	"TZ":             fnTZ,
	"NOW":            fnNow,
	"UUID":           fnUUID,
	"STRUUID":        fnStrUUID,
	"MD5":            fnHashSum(md5Sum),
	"SHA1":           fnHashSum(sha1Sum),
	"SHA256":         fnHashSum(sha256Sum),
	"SHA384":         fnHashSum(sha384Sum),
	"SHA512":         fnHashSum(sha512Sum),
	"TRIPLE":         fnTriple,
	"SUBJECT":        fnSubject,
	"PREDICATE":      fnPredicate,
	"OBJECT":         fnObject,
	"ISTRIPLE":       fnIsTriple,
	"HASLANG":        fnHasLang,
	"HASLANGDIR":     fnHasLangDir,
}

func argErr(fn string, n int) error {
	return &errs.TypeError{Msg: fmt.Sprintf("%s() expects %d argument(s)", fn, n)}
}

func asLiteral(fn string, t rdf.Term) (rdf.Literal, error) {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return rdf.Literal{}, &errs.TypeError{Msg: fn + "() requires a literal argument"}
	}
	return lit, nil
}

func simpleOrStringLiteral(t rdf.Term) (string, bool) {
	lit, ok := t.(rdf.Literal)
	if !ok {
		return "", false
	}
	if lit.Datatype == rdf.XSDString || lit.Lang != "" {
		return lit.Lexical, true
	}
	return "", false
}

// lexicalForm returns the lexical form of any literal (STR() accepts any
// literal or IRI, spec §4.I); for non-literal/non-IRI terms it errors.
func lexicalForm(t rdf.Term) (string, error) {
	switch v := t.(type) {
	case rdf.Literal:
		return v.Lexical, nil
	case rdf.IRI:
		return string(v), nil
	}
	return "", &errs.TypeError{Msg: "STR() requires a literal or IRI argument"}
}

func fnStr(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("STR", 1)
	}
	s, err := lexicalForm(args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewLiteral(s), nil
}

func fnLang(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("LANG", 1)
	}
	lit, err := asLiteral("LANG", args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewLiteral(lit.Lang), nil
}

func fnLangMatches(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 2 {
		return nil, argErr("LANGMATCHES", 2)
	}
	tag, err := lexicalForm(args[0])
	if err != nil {
		return nil, err
	}
	rng, err := lexicalForm(args[1])
	if err != nil {
		return nil, err
	}
	return boolLit(langMatches(tag, rng)), nil
}

// langMatches implements RFC 4647 basic filtering, the algorithm spec
// §4.I's LANGMATCHES() defers to.
func langMatches(tag, rng string) bool {
	if rng == "*" {
		return tag != ""
	}
	tag, rng = strings.ToLower(tag), strings.ToLower(rng)
	if tag == rng {
		return true
	}
	return strings.HasPrefix(tag, rng+"-")
}

func fnDatatype(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("DATATYPE", 1)
	}
	lit, err := asLiteral("DATATYPE", args[0])
	if err != nil {
		return nil, err
	}
	if lit.Lang != "" {
		return rdf.RDFLangStr, nil
	}
	return lit.Datatype, nil
}

func fnIRI(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("IRI", 1)
	}
	if iri, ok := args[0].(rdf.IRI); ok {
		return iri, nil
	}
	s, err := lexicalForm(args[0])
	if err != nil {
		return nil, err
	}
	return rdf.IRI(s), nil
}

func fnBNode(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	switch len(args) {
	case 0:
		return ctx.BNodes.Fresh(), nil
	case 1:
		s, err := lexicalForm(args[0])
		if err != nil {
			return nil, err
		}
		return ctx.BNodes.Named(s), nil
	}
	return nil, argErr("BNODE", 1)
}

func fnIsIRI(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("isIRI", 1)
	}
	_, ok := args[0].(rdf.IRI)
	return boolLit(ok), nil
}

func fnIsBlank(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("isBLANK", 1)
	}
	_, ok := args[0].(rdf.Blank)
	return boolLit(ok), nil
}

func fnIsLiteral(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("isLITERAL", 1)
	}
	_, ok := args[0].(rdf.Literal)
	return boolLit(ok), nil
}

func fnIsNumeric(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("isNUMERIC", 1)
	}
	lit, ok := args[0].(rdf.Literal)
	return boolLit(ok && lit.IsNumeric()), nil
}

func fnSameTerm(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 2 {
		return nil, argErr("sameTerm", 2)
	}
	return boolLit(args[0].Equal(args[1])), nil
}

func fnStrDT(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 2 {
		return nil, argErr("STRDT", 2)
	}
	s, ok := simpleOrStringLiteral(args[0])
	if !ok {
		return nil, &errs.TypeError{Msg: "STRDT() requires a simple literal first argument"}
	}
	dt, ok := args[1].(rdf.IRI)
	if !ok {
		return nil, &errs.TypeError{Msg: "STRDT() requires an IRI second argument"}
	}
	return rdf.NewTypedLiteral(s, dt), nil
}

func fnStrLang(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 2 {
		return nil, argErr("STRLANG", 2)
	}
	s, ok := simpleOrStringLiteral(args[0])
	if !ok {
		return nil, &errs.TypeError{Msg: "STRLANG() requires a simple literal first argument"}
	}
	lang, err := lexicalForm(args[1])
	if err != nil {
		return nil, err
	}
	return rdf.NewLangLiteral(s, lang, rdf.NoDirection), nil
}

func fnAbs(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("ABS", 1)
	}
	f, c, err := asFloat(args[0])
	if err != nil {
		return nil, err
	}
	if f < 0 {
		f = -f
	}
	return numericLiteral(f, c), nil
}

func fnCeil(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	return roundingFunc(args, "CEIL", func(f float64) float64 {
		if f == float64(int64(f)) {
			return f
		}
		if f > 0 {
			return float64(int64(f)) + 1
		}
		return float64(int64(f))
	})
}

func fnFloor(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	return roundingFunc(args, "FLOOR", func(f float64) float64 {
		if f == float64(int64(f)) {
			return f
		}
		if f < 0 {
			return float64(int64(f)) - 1
		}
		return float64(int64(f))
	})
}

func fnRound(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	return roundingFunc(args, "ROUND", func(f float64) float64 {
		return float64(int64(f + 0.5*sign(f)))
	})
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func roundingFunc(args []rdf.Term, name string, fn func(float64) float64) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr(name, 1)
	}
	f, c, err := asFloat(args[0])
	if err != nil {
		return nil, err
	}
	return numericLiteral(fn(f), c), nil
}

func fnStrLen(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("STRLEN", 1)
	}
	s, err := lexicalForm(args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewTypedLiteral(strconv.Itoa(len([]rune(s))), rdf.XSDInteger), nil
}

// stringArgLiteral returns the lexical form of a string-valued argument
// (simple literal or lang-tagged literal), preserving the argument's
// "template" (plain/lang-tagged) for functions that return a literal
// derived from one string argument (UCASE, LCASE, SUBSTR, ...).
func stringArgLiteral(t rdf.Term) (rdf.Literal, error) {
	lit, ok := t.(rdf.Literal)
	if !ok || (lit.Datatype != rdf.XSDString && lit.Lang == "") {
		return rdf.Literal{}, &errs.TypeError{Msg: "expected a string literal"}
	}
	return lit, nil
}

func withLexical(template rdf.Literal, lexical string) rdf.Literal {
	template.Lexical = lexical
	return template
}

func fnUCase(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("UCASE", 1)
	}
	lit, err := stringArgLiteral(args[0])
	if err != nil {
		return nil, err
	}
	return withLexical(lit, strings.ToUpper(lit.Lexical)), nil
}

func fnLCase(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("LCASE", 1)
	}
	lit, err := stringArgLiteral(args[0])
	if err != nil {
		return nil, err
	}
	return withLexical(lit, strings.ToLower(lit.Lexical)), nil
}

func fnSubstr(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, argErr("SUBSTR", 2)
	}
	lit, err := stringArgLiteral(args[0])
	if err != nil {
		return nil, err
	}
	start, _, err := asFloat(args[1])
	if err != nil {
		return nil, err
	}
	runes := []rune(lit.Lexical)
	// SPARQL SUBSTR is 1-indexed with xpath-fn:substring rounding semantics.
	from := int(start+0.5) - 1
	length := len(runes)
	if len(args) == 3 {
		l, _, err := asFloat(args[2])
		if err != nil {
			return nil, err
		}
		length = int(l + 0.5)
	}
	if from < 0 {
		length += from
		from = 0
	}
	if from > len(runes) {
		from = len(runes)
	}
	end := from + length
	if end > len(runes) {
		end = len(runes)
	}
	if end < from {
		end = from
	}
	return withLexical(lit, string(runes[from:end])), nil
}

func fnConcat(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) == 0 {
		return rdf.NewLiteral(""), nil
	}
	var sb strings.Builder
	first, ok := args[0].(rdf.Literal)
	sameTemplate := ok
	for _, a := range args {
		lit, ok2 := a.(rdf.Literal)
		if !ok2 || (lit.Datatype != rdf.XSDString && lit.Lang == "") {
			return nil, &errs.TypeError{Msg: "CONCAT() requires string-literal arguments"}
		}
		if !(lit.Lang == first.Lang && lit.Datatype == first.Datatype) {
			sameTemplate = false
		}
		sb.WriteString(lit.Lexical)
	}
	if sameTemplate && ok {
		return withLexical(first, sb.String()), nil
	}
	return rdf.NewLiteral(sb.String()), nil
}

func twoStringArgs(name string, args []rdf.Term) (string, string, error) {
	if len(args) != 2 {
		return "", "", argErr(name, 2)
	}
	a, err := lexicalForm(args[0])
	if err != nil {
		return "", "", err
	}
	b, err := lexicalForm(args[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func fnContains(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	a, b, err := twoStringArgs("CONTAINS", args)
	if err != nil {
		return nil, err
	}
	return boolLit(strings.Contains(a, b)), nil
}

func fnStrStarts(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	a, b, err := twoStringArgs("STRSTARTS", args)
	if err != nil {
		return nil, err
	}
	return boolLit(strings.HasPrefix(a, b)), nil
}

func fnStrEnds(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	a, b, err := twoStringArgs("STRENDS", args)
	if err != nil {
		return nil, err
	}
	return boolLit(strings.HasSuffix(a, b)), nil
}

func fnStrBefore(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 2 {
		return nil, argErr("STRBEFORE", 2)
	}
	lit, err := stringArgLiteral(args[0])
	if err != nil {
		return nil, err
	}
	needle, err := lexicalForm(args[1])
	if err != nil {
		return nil, err
	}
	idx := strings.Index(lit.Lexical, needle)
	if idx < 0 {
		return rdf.NewLiteral(""), nil
	}
	return withLexical(lit, lit.Lexical[:idx]), nil
}

func fnStrAfter(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 2 {
		return nil, argErr("STRAFTER", 2)
	}
	lit, err := stringArgLiteral(args[0])
	if err != nil {
		return nil, err
	}
	needle, err := lexicalForm(args[1])
	if err != nil {
		return nil, err
	}
	idx := strings.Index(lit.Lexical, needle)
	if idx < 0 {
		return rdf.NewLiteral(""), nil
	}
	return withLexical(lit, lit.Lexical[idx+len(needle):]), nil
}

func regexFlags(flags string) regexp2.RegexOptions {
	opts := regexp2.RE2
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 's':
			opts |= regexp2.Singleline
		case 'm':
			opts |= regexp2.Multiline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		}
	}
	return opts
}

func fnRegex(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, argErr("REGEX", 2)
	}
	s, err := lexicalForm(args[0])
	if err != nil {
		return nil, err
	}
	pattern, err := lexicalForm(args[1])
	if err != nil {
		return nil, err
	}
	flags := ""
	if len(args) == 3 {
		flags, err = lexicalForm(args[2])
		if err != nil {
			return nil, err
		}
	}
	re, err := regexp2.Compile(pattern, regexFlags(flags))
	if err != nil {
		return nil, &errs.TypeError{Msg: "REGEX(): malformed pattern: " + err.Error()}
	}
	m, err := re.MatchString(s)
	if err != nil {
		return nil, &errs.TypeError{Msg: "REGEX(): match failed: " + err.Error()}
	}
	return boolLit(m), nil
}

func fnReplace(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 3 && len(args) != 4 {
		return nil, argErr("REPLACE", 3)
	}
	lit, err := stringArgLiteral(args[0])
	if err != nil {
		return nil, err
	}
	pattern, err := lexicalForm(args[1])
	if err != nil {
		return nil, err
	}
	replacement, err := lexicalForm(args[2])
	if err != nil {
		return nil, err
	}
	flags := ""
	if len(args) == 4 {
		flags, err = lexicalForm(args[3])
		if err != nil {
			return nil, err
		}
	}
	re, err := regexp2.Compile(pattern, regexFlags(flags))
	if err != nil {
		return nil, &errs.TypeError{Msg: "REPLACE(): malformed pattern: " + err.Error()}
	}
	out, err := re.Replace(lit.Lexical, xpathReplacement(replacement), 0, -1)
	if err != nil {
		return nil, &errs.TypeError{Msg: "REPLACE(): substitution failed: " + err.Error()}
	}
	return withLexical(lit, out), nil
}

// xpathReplacement rewrites an xpath-fn:replace-style "$1" backreference
// template into regexp2's "${1}" syntax.
func xpathReplacement(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			sb.WriteString("${" + s[i+1:j] + "}")
			i = j - 1
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func fnEncodeForURI(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("ENCODE_FOR_URI", 1)
	}
	s, err := lexicalForm(args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewLiteral(url.QueryEscape(s)), nil
}

func parseDateTime(lit rdf.Literal) (time.Time, error) {
	layouts := []string{time.RFC3339, time.RFC3339Nano, "2006-01-02", "15:04:05Z07:00"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, lit.Lexical); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &errs.TypeError{Msg: "malformed dateTime/date/time literal: " + lit.Lexical}
}

func dateTimeArg(name string, args []rdf.Term) (time.Time, error) {
	if len(args) != 1 {
		return time.Time{}, argErr(name, 1)
	}
	lit, err := asLiteral(name, args[0])
	if err != nil {
		return time.Time{}, err
	}
	return parseDateTime(lit)
}

func fnYear(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	t, err := dateTimeArg("YEAR", args)
	if err != nil {
		return nil, err
	}
	return rdf.NewTypedLiteral(strconv.Itoa(t.Year()), rdf.XSDInteger), nil
}

func fnMonth(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	t, err := dateTimeArg("MONTH", args)
	if err != nil {
		return nil, err
	}
	return rdf.NewTypedLiteral(strconv.Itoa(int(t.Month())), rdf.XSDInteger), nil
}

func fnDay(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	t, err := dateTimeArg("DAY", args)
	if err != nil {
		return nil, err
	}
	return rdf.NewTypedLiteral(strconv.Itoa(t.Day()), rdf.XSDInteger), nil
}

func fnHours(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	t, err := dateTimeArg("HOURS", args)
	if err != nil {
		return nil, err
	}
	return rdf.NewTypedLiteral(strconv.Itoa(t.Hour()), rdf.XSDInteger), nil
}

func fnMinutes(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	t, err := dateTimeArg("MINUTES", args)
	if err != nil {
		return nil, err
	}
	return rdf.NewTypedLiteral(strconv.Itoa(t.Minute()), rdf.XSDInteger), nil
}

func fnSeconds(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	t, err := dateTimeArg("SECONDS", args)
	if err != nil {
		return nil, err
	}
	return rdf.NewTypedLiteral(strconv.FormatFloat(float64(t.Second()), 'f', -1, 64), rdf.XSDDecimal), nil
}

func fnTimezone(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	t, err := dateTimeArg("TIMEZONE", args)
	if err != nil {
		return nil, err
	}
	_, offset := t.Zone()
	if offset == 0 && t.Location() == time.UTC {
		return rdf.NewTypedLiteral("PT0S", "http://www.w3.org/2001/XMLSchema#dayTimeDuration"), nil
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	h, m := offset/3600, (offset%3600)/60
	dur := fmt.Sprintf("%sPT%dH", sign, h)
	if m > 0 {
		dur = fmt.Sprintf("%sPT%dH%dM", sign, h, m)
	}
	return rdf.NewTypedLiteral(dur, "http://www.w3.org/2001/XMLSchema#dayTimeDuration"), nil
}

func fnTZ(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	t, err := dateTimeArg("TZ", args)
	if err != nil {
		return nil, err
	}
	name, offset := t.Zone()
	if offset == 0 && (name == "UTC" || name == "") {
		return rdf.NewLiteral("Z"), nil
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return rdf.NewLiteral(fmt.Sprintf("%s%02d:%02d", sign, offset/3600, (offset%3600)/60)), nil
}

func fnNow(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 0 {
		return nil, argErr("NOW", 0)
	}
	return rdf.NewTypedLiteral(ctx.Now.Format(time.RFC3339Nano), rdf.XSDDateTime), nil
}

func fnUUID(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 0 {
		return nil, argErr("UUID", 0)
	}
	return rdf.IRI("urn:uuid:" + uuid.NewString()), nil
}

func fnStrUUID(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 0 {
		return nil, argErr("STRUUID", 0)
	}
	return rdf.NewLiteral(uuid.NewString()), nil
}

func sha1Sum(s string) string   { sum := sha1.Sum([]byte(s)); return hex.EncodeToString(sum[:]) }
func sha256Sum(s string) string { sum := sha256.Sum256([]byte(s)); return hex.EncodeToString(sum[:]) }
func sha384Sum(s string) string { sum := sha512.Sum384([]byte(s)); return hex.EncodeToString(sum[:]) }
func sha512Sum(s string) string { sum := sha512.Sum512([]byte(s)); return hex.EncodeToString(sum[:]) }
func md5Sum(s string) string    { sum := md5.Sum([]byte(s)); return hex.EncodeToString(sum[:]) }

func fnHashSum(sum func(string) string) Func {
	return func(ctx *Context, args []rdf.Term) (rdf.Term, error) {
		if len(args) != 1 {
			return nil, argErr("hash function", 1)
		}
		s, err := lexicalForm(args[0])
		if err != nil {
			return nil, err
		}
		return rdf.NewLiteral(sum(s)), nil
	}
}

func fnTriple(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 3 {
		return nil, argErr("TRIPLE", 3)
	}
	return rdf.QuotedTriple{Subject: args[0], Predicate: args[1], Object: args[2]}, nil
}

func asQuoted(name string, t rdf.Term) (rdf.QuotedTriple, error) {
	q, ok := t.(rdf.QuotedTriple)
	if !ok {
		return rdf.QuotedTriple{}, &errs.TypeError{Msg: name + "() requires a quoted-triple argument"}
	}
	return q, nil
}

func fnSubject(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("SUBJECT", 1)
	}
	q, err := asQuoted("SUBJECT", args[0])
	if err != nil {
		return nil, err
	}
	return q.Subject, nil
}

func fnPredicate(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("PREDICATE", 1)
	}
	q, err := asQuoted("PREDICATE", args[0])
	if err != nil {
		return nil, err
	}
	return q.Predicate, nil
}

func fnObject(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("OBJECT", 1)
	}
	q, err := asQuoted("OBJECT", args[0])
	if err != nil {
		return nil, err
	}
	return q.Object, nil
}

func fnIsTriple(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("isTRIPLE", 1)
	}
	_, ok := args[0].(rdf.QuotedTriple)
	return boolLit(ok), nil
}

func fnHasLang(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("HASLANG", 1)
	}
	lit, err := asLiteral("HASLANG", args[0])
	if err != nil {
		return nil, err
	}
	return boolLit(lit.Lang != ""), nil
}

func fnHasLangDir(ctx *Context, args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, argErr("HASLANGDIR", 1)
	}
	lit, err := asLiteral("HASLANGDIR", args[0])
	if err != nil {
		return nil, err
	}
	return boolLit(lit.Lang != "" && lit.Dir != rdf.NoDirection), nil
}
