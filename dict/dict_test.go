package dict_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/dict"
)

func TestInternReturnsSameHandleForEqualStrings(t *testing.T) {
	var d dict.Dictionary
	h1 := d.Intern("http://example.org/p")
	h2 := d.Intern("http://example.org/p")
	require.Equal(t, h1, h2)
	require.Equal(t, "http://example.org/p", h1.String())
}

func TestInternDistinctStringsGetDistinctHandles(t *testing.T) {
	var d dict.Dictionary
	h1 := d.Intern("a")
	h2 := d.Intern("b")
	require.NotEqual(t, h1, h2)
}

func TestInternDoesNotAliasCallerBuffer(t *testing.T) {
	var d dict.Dictionary
	buf := []byte("mutable")
	h := d.Intern(string(buf))
	buf[0] = 'X'
	require.Equal(t, "mutable", h.String())
}

func TestZeroHandleInvalid(t *testing.T) {
	var h dict.Handle
	require.False(t, h.Valid())
	require.Equal(t, "", h.String())
}

func TestLenCountsDistinctStrings(t *testing.T) {
	var d dict.Dictionary
	d.Intern("a")
	d.Intern("b")
	d.Intern("a")
	require.Equal(t, 2, d.Len())
}

func TestResolveMirrorsString(t *testing.T) {
	var d dict.Dictionary
	h := d.Intern("http://example.org/x")
	require.Equal(t, h.String(), d.Resolve(h))
}

func TestConcurrentIntern(t *testing.T) {
	var d dict.Dictionary
	var wg sync.WaitGroup
	handles := make([]dict.Handle, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = d.Intern("shared")
		}(i)
	}
	wg.Wait()
	for i := 1; i < 100; i++ {
		require.Equal(t, handles[0], handles[i])
	}
}

func TestDefaultDictionaryIsUsable(t *testing.T) {
	h := dict.Default.Intern("http://example.org/default-test")
	require.Equal(t, "http://example.org/default-test", h.String())
}
