package memkv_test

import (
	"testing"

	"github.com/kgcore/rdfstore/kv"
	"github.com/kgcore/rdfstore/kv/kvtest"
	"github.com/kgcore/rdfstore/kv/memkv"
)

func TestConformance(t *testing.T) {
	kvtest.RunConformance(t, func(t *testing.T) kv.Backend {
		return memkv.New()
	})
}
