package store

import "github.com/kgcore/rdfstore/rdf"

// indexKind names the four redundant sort orders the store maintains
// (spec §4.D).
type indexKind byte

const (
	idxSPOC indexKind = iota
	idxPOCS
	idxOCSP
	idxCSPO
)

var allIndexes = [4]indexKind{idxSPOC, idxPOCS, idxOCSP, idxCSPO}

func (k indexKind) String() string {
	switch k {
	case idxSPOC:
		return "SPOC"
	case idxPOCS:
		return "POCS"
	case idxOCSP:
		return "OCSP"
	case idxCSPO:
		return "CSPO"
	default:
		return "?"
	}
}

// order is the term-slot permutation for this index, e.g. SPOC asks for
// {S,P,O,G} in that order.
func (k indexKind) order() [4]rdf.Dir {
	switch k {
	case idxSPOC:
		return [4]rdf.Dir{rdf.S, rdf.P, rdf.O, rdf.G}
	case idxPOCS:
		return [4]rdf.Dir{rdf.P, rdf.O, rdf.G, rdf.S}
	case idxOCSP:
		return [4]rdf.Dir{rdf.O, rdf.G, rdf.S, rdf.P}
	case idxCSPO:
		return [4]rdf.Dir{rdf.G, rdf.S, rdf.P, rdf.O}
	default:
		panic("store: invalid index kind")
	}
}

// keyPrefix is the byte prefix distinguishing this index's keys inside
// the shared kv.Backend namespace the four indexes cohabit (spec §9: four
// adapters over a single shared handle, never four independent stores).
func (k indexKind) keyPrefix() byte {
	return byte('A' + k)
}

// encodeKey builds the full index key for a quad.
func encodeKey(kind indexKind, q rdf.Quad) ([]byte, error) {
	buf := []byte{kind.keyPrefix()}
	var err error
	for _, d := range kind.order() {
		t := q.Get(d)
		if t == nil {
			// The default graph is encoded as an explicit zero-length
			// marker so index keys stay total-order comparable even when
			// G is absent.
			buf = append(buf, 0)
			continue
		}
		buf = append(buf, 1)
		buf, err = encodeTerm(buf, t)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// decodeKey reverses encodeKey, reconstructing the quad from an index key
// of the given kind.
func decodeKey(kind indexKind, key []byte) (rdf.Quad, error) {
	var q rdf.Quad
	pos := 1 // skip the index's keyPrefix byte
	for _, d := range kind.order() {
		if pos >= len(key) {
			return q, errTruncatedKey
		}
		present := key[pos]
		pos++
		if present == 0 {
			continue
		}
		t, n, err := decodeTerm(key[pos:])
		if err != nil {
			return q, err
		}
		pos += n
		q.Set(d, t)
	}
	return q, nil
}

var errTruncatedKey = &encodingError{"truncated index key"}

type encodingError struct{ msg string }

func (e *encodingError) Error() string { return "store: " + e.msg }

// selectIndex picks the index whose permutation has the longest bound
// prefix for pattern p, per spec §4.D. Ties are broken by a fixed order
// (SPOC, POCS, OCSP, CSPO), which also makes selectIndex deterministic.
//
// It returns the chosen index, the prefix bytes to scan with, and the set
// of bound slots that are NOT covered by the prefix scan and must be
// filtered post-scan (non-prefix bound slots, or any slot bound to a
// quoted triple containing a variable — callers of Find handle that
// latter case separately since Pattern never carries a variable).
func selectIndex(p rdf.Pattern) (kind indexKind, prefix []byte, remaining []rdf.Dir, err error) {
	best := -1
	for _, k := range allIndexes {
		n := boundPrefixLen(k, p)
		if n > best {
			best = n
			kind = k
		}
	}
	order := kind.order()
	buf := []byte{kind.keyPrefix()}
	i := 0
	for ; i < best; i++ {
		d := order[i]
		t := p.Get(d)
		buf = append(buf, 1)
		buf, err = encodeTerm(buf, t)
		if err != nil {
			return 0, nil, nil, err
		}
	}
	for ; i < 4; i++ {
		d := order[i]
		if p.Get(d) != nil {
			remaining = append(remaining, d)
		}
	}
	return kind, buf, remaining, nil
}

// boundPrefixLen counts the leading bound slots of p in index k's
// permutation order.
func boundPrefixLen(k indexKind, p rdf.Pattern) int {
	order := k.order()
	n := 0
	for _, d := range order {
		if p.Get(d) == nil {
			break
		}
		n++
	}
	return n
}
