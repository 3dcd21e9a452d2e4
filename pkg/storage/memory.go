package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	jailerr "jailcfg/errors"
)

// MemoryManager is a file-backed fake of the storage capability.
// Mountpoints live under a base directory so callers can exercise the
// real config file paths without a ZFS pool.
type MemoryManager struct {
	base     string
	pools    []string
	datasets map[string]*MemoryDataset
}

func NewMemoryManager(base string, pools ...string) *MemoryManager {
	return &MemoryManager{
		base:     base,
		pools:    pools,
		datasets: make(map[string]*MemoryDataset),
	}
}

func (m *MemoryManager) Pools() ([]string, error) {
	return append([]string(nil), m.pools...), nil
}

func (m *MemoryManager) GetDataset(name string) (Dataset, error) {
	ds, ok := m.datasets[name]
	if !ok {
		return nil, errors.Wrapf(jailerr.DatasetNotFound, "dataset %q", name)
	}
	return ds, nil
}

func (m *MemoryManager) CreateDataset(name string) (Dataset, error) {
	segments := strings.Split(name, "/")
	for i := range segments {
		partial := strings.Join(segments[:i+1], "/")
		if _, ok := m.datasets[partial]; ok {
			continue
		}
		m.datasets[partial] = &MemoryDataset{
			name:       partial,
			mountpoint: filepath.Join(m.base, filepath.FromSlash(partial)),
			props:      make(map[string]string),
		}
	}
	return m.datasets[name], nil
}

// MustCreate is a test helper: create and mount, panicking on failure.
func (m *MemoryManager) MustCreate(name string) *MemoryDataset {
	ds, err := m.CreateDataset(name)
	if err != nil {
		panic(err)
	}
	if err := ds.Mount(); err != nil {
		panic(err)
	}
	return ds.(*MemoryDataset)
}

// Names returns all dataset names in stable order.
func (m *MemoryManager) Names() []string {
	names := make([]string, 0, len(m.datasets))
	for name := range m.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type MemoryDataset struct {
	name       string
	mountpoint string
	mounted    bool
	props      map[string]string
}

func (d *MemoryDataset) Name() string {
	return d.name
}

func (d *MemoryDataset) Mountpoint() string {
	return d.mountpoint
}

func (d *MemoryDataset) Mounted() bool {
	return d.mounted
}

func (d *MemoryDataset) Mount() error {
	if err := os.MkdirAll(d.mountpoint, 0o755); err != nil {
		return err
	}
	d.mounted = true
	return nil
}

func (d *MemoryDataset) UserProperties() (map[string]string, error) {
	props := make(map[string]string, len(d.props))
	for k, v := range d.props {
		props[k] = v
	}
	return props, nil
}

func (d *MemoryDataset) GetProperty(name string) (string, bool, error) {
	value, ok := d.props[name]
	return value, ok, nil
}

func (d *MemoryDataset) SetProperty(name, value string) error {
	d.props[name] = value
	return nil
}
