package boltkv_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgcore/rdfstore/kv"
	"github.com/kgcore/rdfstore/kv/boltkv"
	"github.com/kgcore/rdfstore/kv/kvtest"
)

func TestConformance(t *testing.T) {
	n := 0
	kvtest.RunConformance(t, func(t *testing.T) kv.Backend {
		n++
		b, err := boltkv.Open(boltkv.Options{Path: filepath.Join(t.TempDir(), "db.bolt")})
		require.NoError(t, err)
		return b
	})
}
