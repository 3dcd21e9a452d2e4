package jailconf

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jailerr "jailcfg/errors"
)

func TestAddressListParsing(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
		wantErr  bool
	}{
		{"single pair", "vtnet0|10.0.0.2/24", "vtnet0|10.0.0.2/24", false},
		{"comma separated", "vtnet0|10.0.0.2/24,vtnet1|dhcp", "vtnet0|10.0.0.2/24,vtnet1|dhcp", false},
		{"space separated", "em0|10.0.0.1/24 em1|10.0.0.2/24", "em0|10.0.0.1/24,em1|10.0.0.2/24", false},
		{"bare address", "192.168.1.10", "192.168.1.10", false},
		{"keyword case insensitive", "vtnet0|DHCP", "vtnet0|DHCP", false},
		{"string slice", []string{"vtnet0|10.0.0.2/24"}, "vtnet0|10.0.0.2/24", false},
		{"nil clears", nil, "", false},
		{"bad address", "em0|999.0.0.1/24", "", true},
		{"not an address", "nonsense", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := parseAddressList("ip4_addr", tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, jailerr.InvalidPropertyValue))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, list.String())
		})
	}
}

func TestIP6AddrDrivesRtsoldFlag(t *testing.T) {
	c, rc := newTestConfig(t)

	_, err := c.Set("ip6_addr", "vtnet0|accept_rtadv", false)
	require.NoError(t, err)
	assert.True(t, rc.Flags["rtsold_enable"])

	_, err = c.Set("ip6_addr", "vtnet0|2001:db8::1/64", false)
	require.NoError(t, err)
	assert.False(t, rc.Flags["rtsold_enable"])

	// ip4_addr never touches the flag
	delete(rc.Flags, "rtsold_enable")
	_, err = c.Set("ip4_addr", "vtnet0|10.0.0.2/24", false)
	require.NoError(t, err)
	_, ok := rc.Flags["rtsold_enable"]
	assert.False(t, ok)
}

func TestInterfaceListValidation(t *testing.T) {
	c, _ := newTestConfig(t)

	_, err := c.Set("interfaces", "vnet0:bridge0 vnet1", false)
	require.NoError(t, err)

	value, err := c.Get("interfaces")
	require.NoError(t, err)
	list, ok := value.(*InterfaceList)
	require.True(t, ok)
	assert.Equal(t, []string{"vnet0:bridge0", "vnet1"}, list.Names())
	assert.Equal(t, "vnet0:bridge0 vnet1", c.data["interfaces"])

	for _, invalid := range []string{"0bad", "vnet0:bridge0:extra", "vnet 0"} {
		_, err := c.Set("interfaces", invalid, false)
		require.Error(t, err, invalid)
		assert.True(t, errors.Is(err, jailerr.InvalidPropertyValue))
	}
}

func TestResolverApplyAndMerge(t *testing.T) {
	c, _ := newTestConfig(t)

	_, err := c.Set("resolver", "nameserver 8.8.8.8;search example.com", false)
	require.NoError(t, err)

	value, err := c.Get("resolver")
	require.NoError(t, err)
	r, ok := value.(*Resolver)
	require.True(t, ok)
	assert.Equal(t, []string{"nameserver 8.8.8.8", "search example.com"}, r.Entries())
	assert.Equal(t, "nameserver 8.8.8.8;search example.com", c.data["resolver"])

	// merging keeps existing entries and skips duplicates
	require.NoError(t, r.Merge("nameserver 8.8.8.8;nameserver 9.9.9.9", true))
	assert.Equal(t, []string{
		"nameserver 8.8.8.8",
		"search example.com",
		"nameserver 9.9.9.9",
	}, r.Entries())
	assert.Equal(t, r.String(), c.data["resolver"])

	// apply replaces wholesale
	require.NoError(t, r.Apply("nameserver 1.1.1.1", true))
	assert.Equal(t, []string{"nameserver 1.1.1.1"}, r.Entries())
	assert.Equal(t, "nameserver 1.1.1.1", c.data["resolver"])
}

func TestResolverRejectsUnknownDirectives(t *testing.T) {
	c, _ := newTestConfig(t)
	_, err := c.Set("resolver", "bogus 1.2.3.4", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jailerr.InvalidPropertyValue))
}

func TestResolverAllowsComments(t *testing.T) {
	entries, err := parseResolverValue("# managed;nameserver 8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, []string{"# managed", "nameserver 8.8.8.8"}, entries)
}

func TestTypeHandler(t *testing.T) {
	c, _ := newTestConfig(t)

	_, err := c.Set("type", "basejail", false)
	require.NoError(t, err)
	assert.True(t, c.GetBool("basejail"))
	assert.False(t, c.GetBool("clonejail"))
	value, err := c.GetString("type")
	require.NoError(t, err)
	assert.Equal(t, "basejail", value)

	_, err = c.Set("type", "clonejail", false)
	require.NoError(t, err)
	assert.False(t, c.GetBool("basejail"))
	assert.True(t, c.GetBool("clonejail"))
	value, err = c.GetString("type")
	require.NoError(t, err)
	assert.Equal(t, "clonejail", value)

	// unknown literals pass through to the plain field untouched
	_, err = c.Set("type", "template", false)
	require.NoError(t, err)
	assert.Equal(t, "template", c.data["type"])
	assert.False(t, c.GetBool("basejail"))
}

func TestDefaultRouterNormalizesNone(t *testing.T) {
	c, _ := newTestConfig(t)

	_, err := c.Set("defaultrouter", "10.0.0.1", false)
	require.NoError(t, err)
	value, err := c.GetString("defaultrouter")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", value)

	_, err = c.Set("defaultrouter", nil, false)
	require.NoError(t, err)
	value, err = c.GetString("defaultrouter")
	require.NoError(t, err)
	assert.Equal(t, "none", value)
}

func TestClonedReleaseFallsBackToRelease(t *testing.T) {
	c, _ := newTestConfig(t)
	_, err := c.Set("release", "13.0-RELEASE", false)
	require.NoError(t, err)

	value, err := c.GetString("cloned_release")
	require.NoError(t, err)
	assert.Equal(t, "13.0-RELEASE", value)

	_, err = c.Set("cloned_release", "12.2-RELEASE", false)
	require.NoError(t, err)
	value, err = c.GetString("cloned_release")
	require.NoError(t, err)
	assert.Equal(t, "12.2-RELEASE", value)
}

func TestBasejailType(t *testing.T) {
	c, _ := newTestConfig(t)

	_, err := c.Get("basejail_type")
	require.Error(t, err)

	_, err = c.Set("basejail", true, false)
	require.NoError(t, err)
	value, err := c.GetString("basejail_type")
	require.NoError(t, err)
	assert.Equal(t, "nullfs", value)

	_, err = c.Set("basejail_type", "zfs", false)
	require.NoError(t, err)
	value, err = c.GetString("basejail_type")
	require.NoError(t, err)
	assert.Equal(t, "zfs", value)
}

func TestHostIdentityFallsBackToID(t *testing.T) {
	c, _ := newTestConfig(t)
	_, err := c.Set("name", "web01", false)
	require.NoError(t, err)

	for _, key := range []string{"host_hostname", "host_hostuuid"} {
		value, err := c.GetString(key)
		require.NoError(t, err)
		assert.Equal(t, "web01", value)
	}

	_, err = c.Set("host_hostname", "www.example.com", false)
	require.NoError(t, err)
	value, err := c.GetString("host_hostname")
	require.NoError(t, err)
	assert.Equal(t, "www.example.com", value)
}

func TestJailZFSRequiresEnablement(t *testing.T) {
	c, _ := newTestConfig(t)

	_, err := c.Set("jail_zfs_dataset", "tank/media tank/backups", false)
	require.NoError(t, err)

	// datasets alone imply enablement
	assert.True(t, c.GetBool("jail_zfs"))

	_, err = c.Set("jail_zfs", false, false)
	require.NoError(t, err)
	_, err = c.Get("jail_zfs")
	require.Error(t, err)
	assert.True(t, errors.Is(err, jailerr.ZFSNotAllowed))

	_, err = c.Set("jail_zfs", true, false)
	require.NoError(t, err)
	value, err := c.Get("jail_zfs_dataset")
	require.NoError(t, err)
	assert.Equal(t, []string{"tank/media", "tank/backups"}, value)
}
