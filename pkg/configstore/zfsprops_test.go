package configstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jailcfg/pkg/storage"
)

func TestZFSPropertyStore(t *testing.T) {
	mgr := storage.NewMemoryManager(t.TempDir(), "tank")
	ds := mgr.MustCreate("tank/iocage/jails/old")

	store := NewZFSPropertyStore(ds, nil)
	assert.False(t, store.Exists())

	require.NoError(t, store.Write(map[string]interface{}{
		"host_hostuuid": "old",
		"boot":          true,
	}))
	assert.True(t, store.Exists())

	// unrelated user properties are not part of the configuration
	require.NoError(t, ds.SetProperty("com.example:note", "ignored"))

	data := store.Read()
	assert.Equal(t, map[string]interface{}{
		"host_hostuuid": "old",
		"boot":          "yes",
	}, data)
}
