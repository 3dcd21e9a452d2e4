package jailconf

import (
	"github.com/pkg/errors"

	"jailcfg/pkg/configstore"
	"jailcfg/pkg/resource"
)

// Read loads the configuration from the backing resource, trying the
// JSON file, the legacy flat file and the prefixed ZFS properties in
// that order. The first encoding found wins, the legacy flag follows
// it, and the tag of the winning encoding is returned.
// ConfigTypeNone means no configuration exists yet.
func (c *JailConfig) Read() (resource.ConfigType, error) {
	if c.rsrc == nil {
		return resource.ConfigTypeNone, errors.New("config is not bound to a resource")
	}

	for _, probe := range []struct {
		encoding resource.ConfigType
		store    configstore.Store
	}{
		{resource.ConfigTypeJSON, configstore.NewJSONStore(c.rsrc.JSONConfigPath(), c.logger)},
		{resource.ConfigTypeLegacy, configstore.NewLegacyStore(c.rsrc.LegacyConfigPath(), c.logger)},
		{resource.ConfigTypeZFS, configstore.NewZFSPropertyStore(c.rsrc.Dataset, c.logger)},
	} {
		if !probe.store.Exists() {
			continue
		}
		if err := c.BulkApply(probe.store.Read(), false); err != nil {
			return resource.ConfigTypeNone, err
		}
		c.encoding = probe.encoding
		c.legacy = probe.encoding.Legacy()
		c.logger.Debugf("configuration loaded from %s", probe.encoding)
		return probe.encoding, nil
	}

	c.logger.Debug("no configuration was found")
	return resource.ConfigTypeNone, nil
}

// Save writes through the encoding the configuration was read from
// (new resources get the JSON file) and then notifies the run-control
// sink so cross-cutting flags reach the jail's rc.conf.
func (c *JailConfig) Save() error {
	if c.rsrc == nil {
		return errors.New("config is not bound to a resource")
	}

	var store configstore.Store
	switch c.encoding {
	case resource.ConfigTypeLegacy:
		store = configstore.NewLegacyStore(c.rsrc.LegacyConfigPath(), c.logger)
	case resource.ConfigTypeZFS:
		store = configstore.NewZFSPropertyStore(c.rsrc.Dataset, c.logger)
	default:
		store = configstore.NewJSONStore(c.rsrc.JSONConfigPath(), c.logger)
	}
	if err := store.Write(c.data); err != nil {
		return err
	}

	if c.rc != nil {
		return c.rc.Save()
	}
	return nil
}
