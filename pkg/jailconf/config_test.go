package jailconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jailerr "jailcfg/errors"
	"jailcfg/pkg/configstore"
	"jailcfg/pkg/rcconf"
	"jailcfg/pkg/resource"
	"jailcfg/pkg/storage"
)

func newTestConfig(t *testing.T) (*JailConfig, *rcconf.Memory) {
	t.Helper()
	rc := rcconf.NewMemory()
	c, err := New(Options{RC: rc})
	require.NoError(t, err)
	return c, rc
}

func newBoundConfig(t *testing.T, name string) (*JailConfig, *resource.Resource, *rcconf.Memory) {
	t.Helper()
	mgr := storage.NewMemoryManager(t.TempDir(), "tank")
	mgr.MustCreate(name)
	rsrc, err := resource.NewLocator(mgr, nil).Resolve(name)
	require.NoError(t, err)

	rc := rcconf.NewMemory()
	c, err := New(Options{Resource: rsrc, RC: rc})
	require.NoError(t, err)
	return c, rsrc, rc
}

func TestGetPrecedence(t *testing.T) {
	dir := t.TempDir()
	defaultsPath := filepath.Join(dir, "defaults.json")
	require.NoError(t, configstore.NewJSONStore(defaultsPath, nil).Write(map[string]interface{}{
		"vnet":    "on",
		"release": "13.0-RELEASE",
	}))

	c, err := New(Options{DefaultsPath: defaultsPath})
	require.NoError(t, err)

	// defaults cascade
	assert.True(t, c.GetBool("vnet"))
	value, err := c.GetString("release")
	require.NoError(t, err)
	assert.Equal(t, "13.0-RELEASE", value)

	// plain store beats defaults
	_, err = c.Set("vnet", false, false)
	require.NoError(t, err)
	assert.False(t, c.GetBool("vnet"))

	// built-in defaults sit at the end of the cascade
	assert.False(t, c.GetBool("basejail"))
	assert.True(t, c.GetBool("clonejail"))

	_, err = c.Get("no_such_property")
	require.Error(t, err)
	assert.True(t, errors.Is(err, jailerr.PropertyNotFound))
}

func TestSpecialGetterBeatsPlainStore(t *testing.T) {
	c, _ := newTestConfig(t)
	_, err := c.Set("ip4_addr", "vtnet0|10.0.0.2/24", false)
	require.NoError(t, err)

	// the canonical string sits in the plain store, the live handler
	// object still owns reads
	value, err := c.Get("ip4_addr")
	require.NoError(t, err)
	list, ok := value.(*AddressList)
	require.True(t, ok)
	assert.Equal(t, "vtnet0|10.0.0.2/24", list.String())
}

func TestSetReportsChange(t *testing.T) {
	c, _ := newTestConfig(t)

	changed, err := c.Set("boot", "yes", false)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = c.Set("boot", "yes", false)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = c.Set("boot", false, false)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestSetSkipOnErrorStoresRawValue(t *testing.T) {
	c, _ := newTestConfig(t)

	_, err := c.Set("ip4_addr", "not an address", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jailerr.InvalidPropertyValue))
	_, err = c.Get("ip4_addr")
	require.Error(t, err)

	changed, err := c.Set("ip4_addr", "not an address", true)
	require.NoError(t, err)
	assert.True(t, changed)

	value, err := c.Get("ip4_addr")
	require.NoError(t, err)
	assert.Equal(t, "not an address", value)
}

func TestGetStringNormalizesAbsent(t *testing.T) {
	c, _ := newTestConfig(t)
	_, err := c.Set("notes", nil, false)
	require.NoError(t, err)

	value, err := c.GetString("notes")
	require.NoError(t, err)
	assert.Equal(t, "none", value)
}

func TestIdentityValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"plain name", "web01", "web01", false},
		{"dots and dashes", "db-1.internal", "db-1.internal", false},
		{"embedded space", "bad name", "", true},
		{"caret", "web^01", "", true},
		{"uuid", "4f3d2b1a-0000-0000-0000-000000000000", "4f3d2b1a-0000-0000-0000-000000000000", false},
		{"braced uuid normalized", "{4f3d2b1a-0000-0000-0000-000000000000}", "4f3d2b1a-0000-0000-0000-000000000000", false},
		{"braced garbage", "{not-a-uuid}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestConfig(t)
			_, err := c.Set("name", tt.input, false)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, jailerr.InvalidResourceName))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c.ID())
		})
	}
}

func TestIdentityAliasesResolveToSameValue(t *testing.T) {
	c, _ := newTestConfig(t)
	_, err := c.Set("uuid", "web01", false)
	require.NoError(t, err)

	for _, alias := range []string{"id", "name", "uuid"} {
		value, err := c.GetString(alias)
		require.NoError(t, err)
		assert.Equal(t, "web01", value)
	}
}

func TestBulkApplyPinsIdentity(t *testing.T) {
	c, _ := newTestConfig(t)
	require.NoError(t, c.BulkApply(map[string]interface{}{
		"name": "web01",
		"boot": "yes",
	}, false))
	assert.Equal(t, "web01", c.ID())

	// later alias occurrences cannot change an already-set id
	require.NoError(t, c.BulkApply(map[string]interface{}{
		"id":   "intruder",
		"uuid": "intruder",
	}, false))
	assert.Equal(t, "web01", c.ID())
}

func TestBulkApplyAggregatesFailures(t *testing.T) {
	c, _ := newTestConfig(t)
	err := c.BulkApply(map[string]interface{}{
		"ip4_addr":   "nonsense",
		"interfaces": "0bad",
		"boot":       "yes",
	}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jailerr.InvalidPropertyValue))

	// valid pairs were still applied
	assert.True(t, c.GetBool("boot"))
}

func TestReadDetectsJSONEncoding(t *testing.T) {
	c, rsrc, _ := newBoundConfig(t, "tank/iocage/jails/web01")
	require.NoError(t, configstore.NewJSONStore(rsrc.JSONConfigPath(), nil).Write(map[string]interface{}{
		"id":   "web01",
		"boot": true,
	}))

	encoding, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, resource.ConfigTypeJSON, encoding)
	assert.False(t, c.Legacy())
	assert.Equal(t, "web01", c.ID())
	assert.True(t, c.GetBool("boot"))
}

func TestReadDetectsLegacyEncoding(t *testing.T) {
	c, rsrc, _ := newBoundConfig(t, "tank/iocage/jails/old")
	require.NoError(t, os.WriteFile(rsrc.LegacyConfigPath(),
		[]byte("host_hostuuid = old\nboot = on\n"), 0o644))

	encoding, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, resource.ConfigTypeLegacy, encoding)
	assert.True(t, c.Legacy())
	assert.True(t, c.GetBool("boot"))
}

func TestReadDetectsZFSPropertyEncoding(t *testing.T) {
	c, rsrc, _ := newBoundConfig(t, "tank/iocage/jails/ancient")
	require.NoError(t, rsrc.Dataset.SetProperty("org.freebsd.iocage:host_hostuuid", "ancient"))
	require.NoError(t, rsrc.Dataset.SetProperty("org.freebsd.iocage:boot", "yes"))

	encoding, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, resource.ConfigTypeZFS, encoding)
	assert.True(t, c.Legacy())
	assert.True(t, c.GetBool("boot"))
}

func TestReadWithoutConfiguration(t *testing.T) {
	c, _, _ := newBoundConfig(t, "tank/iocage/jails/new")
	encoding, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, resource.ConfigTypeNone, encoding)
}

func TestSaveIsIdempotent(t *testing.T) {
	c, rsrc, rc := newBoundConfig(t, "tank/iocage/jails/web01")
	_, err := c.Set("name", "web01", false)
	require.NoError(t, err)
	_, err = c.Set("boot", true, false)
	require.NoError(t, err)

	require.NoError(t, c.Save())
	first, err := os.ReadFile(rsrc.JSONConfigPath())
	require.NoError(t, err)

	require.NoError(t, c.Save())
	second, err := os.ReadFile(rsrc.JSONConfigPath())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, rc.Saves)
}

func TestSaveWritesThroughDetectedEncoding(t *testing.T) {
	c, rsrc, _ := newBoundConfig(t, "tank/iocage/jails/old")
	require.NoError(t, os.WriteFile(rsrc.LegacyConfigPath(),
		[]byte("host_hostuuid = old\n"), 0o644))
	_, err := c.Read()
	require.NoError(t, err)

	_, err = c.Set("boot", true, false)
	require.NoError(t, err)
	require.NoError(t, c.Save())

	// the legacy file was rewritten, no JSON file appeared
	content, err := os.ReadFile(rsrc.LegacyConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "boot = on")
	assert.NoFileExists(t, rsrc.JSONConfigPath())
}

func TestAllProperties(t *testing.T) {
	c, _ := newTestConfig(t)
	_, err := c.Set("boot", true, false)
	require.NoError(t, err)

	names := c.AllProperties()
	assert.Contains(t, names, "boot")
	assert.Contains(t, names, "basejail")
	assert.Contains(t, names, "clonejail")
	assert.Contains(t, names, "login_flags")
}
