package badgerkv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/kv"
	"github.com/kgcore/rdfstore/kv/badgerkv"
	"github.com/kgcore/rdfstore/kv/kvtest"
)

func TestConformance(t *testing.T) {
	kvtest.RunConformance(t, func(t *testing.T) kv.Backend {
		b, err := badgerkv.Open(badgerkv.Options{Path: t.TempDir()})
		require.NoError(t, err)
		return b
	})
}
