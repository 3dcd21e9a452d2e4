// Package resource resolves where a jail's or release's configuration
// physically lives: which dataset backs it and which of the three
// config encodings it uses.
package resource

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	defs "jailcfg/definitions"
	jailerr "jailcfg/errors"
	log "jailcfg/logger"
	"jailcfg/pkg/storage"
	"jailcfg/pkg/utils"
)

// ConfigType tags the encoding detected on a resource's dataset.
type ConfigType int

const (
	ConfigTypeNone ConfigType = iota
	ConfigTypeJSON
	ConfigTypeLegacy
	ConfigTypeZFS
)

func (t ConfigType) String() string {
	switch t {
	case ConfigTypeJSON:
		return "json"
	case ConfigTypeLegacy:
		return "legacy"
	case ConfigTypeZFS:
		return "zfs"
	default:
		return "none"
	}
}

// Legacy reports whether the encoding predates the JSON config file.
func (t ConfigType) Legacy() bool {
	return t == ConfigTypeLegacy || t == ConfigTypeZFS
}

// Resource is a storage-backed entity carrying a configuration: a jail,
// a release or the shared defaults template.
type Resource struct {
	Name    string
	Dataset storage.Dataset

	// ConfigType is probed exactly once, during resolution.
	ConfigType ConfigType
}

func (r *Resource) Path() string {
	return r.Dataset.Mountpoint()
}

func (r *Resource) JSONConfigPath() string {
	return filepath.Join(r.Path(), defs.JSONConfigName)
}

func (r *Resource) LegacyConfigPath() string {
	return filepath.Join(r.Path(), defs.LegacyConfigName)
}

func (r *Resource) FstabPath() string {
	return filepath.Join(r.Path(), defs.FstabName)
}

func (r *Resource) RCConfPath() string {
	return filepath.Join(r.Path(), defs.RCConfName)
}

// RootPath is the jail's root filesystem below the dataset mountpoint.
func (r *Resource) RootPath() string {
	return filepath.Join(r.Path(), "root")
}

// Locator finds or creates the backing dataset for a resource name and
// probes its config encoding.
type Locator struct {
	mgr    storage.Manager
	logger *logrus.Entry
}

func NewLocator(mgr storage.Manager, logger *logrus.Entry) *Locator {
	if logger == nil {
		logger = log.Entry("resource")
	}
	return &Locator{mgr: mgr, logger: logger}
}

// Resolve locates the dataset backing name, creating and mounting it if
// absent. The owning pool is matched against the name's leading path
// segment; without a match resolution fails with StoreNotFound.
// Storage-layer errors propagate unmodified and nothing is retried.
func (l *Locator) Resolve(name string) (*Resource, error) {
	dataset, err := l.mgr.GetDataset(name)
	if err != nil {
		if !errors.Is(err, jailerr.DatasetNotFound) {
			return nil, err
		}
		dataset, err = l.create(name)
		if err != nil {
			return nil, err
		}
	}

	if !dataset.Mounted() {
		if err := dataset.Mount(); err != nil {
			return nil, err
		}
	}

	r := &Resource{
		Name:       name,
		Dataset:    dataset,
		ConfigType: DetectConfigType(dataset),
	}
	l.logger.WithFields(logrus.Fields{
		"resource": name,
		"config":   r.ConfigType.String(),
	}).Debug("resolved resource")
	return r, nil
}

func (l *Locator) create(name string) (storage.Dataset, error) {
	pool := strings.SplitN(name, "/", 2)[0]
	pools, err := l.mgr.Pools()
	if err != nil {
		return nil, err
	}
	if !utils.InList(pools, pool) {
		return nil, errors.Wrapf(jailerr.StoreNotFound, "no pool %q for resource %q", pool, name)
	}

	dataset, err := l.mgr.CreateDataset(name)
	if err != nil {
		return nil, err
	}
	if err := dataset.Mount(); err != nil {
		return nil, err
	}
	return dataset, nil
}

// DetectConfigType runs the three-way encoding probe: JSON config file,
// then legacy flat file, then prefixed ZFS user properties. New
// resources with none of them report ConfigTypeNone and are written as
// JSON.
func DetectConfigType(dataset storage.Dataset) ConfigType {
	mountpoint := dataset.Mountpoint()

	if utils.IsRegular(filepath.Join(mountpoint, defs.JSONConfigName)) {
		return ConfigTypeJSON
	}
	if utils.IsRegular(filepath.Join(mountpoint, defs.LegacyConfigName)) {
		return ConfigTypeLegacy
	}

	props, err := dataset.UserProperties()
	if err == nil {
		for name := range props {
			if strings.HasPrefix(name, defs.ZFSPropertyPrefix) {
				return ConfigTypeZFS
			}
		}
	}
	return ConfigTypeNone
}
