// Package storage exposes the dataset capability consumed by the
// resource locator and the property-based config store. Pool and
// dataset mechanics stay behind these interfaces; the CLI binds the
// ZFS implementation while tests use the in-memory one.
package storage

// Dataset is a single storage-backed filesystem.
type Dataset interface {
	Name() string
	Mountpoint() string
	Mounted() bool
	Mount() error

	// UserProperties returns the user-namespace properties (names
	// containing a colon) currently set on the dataset.
	UserProperties() (map[string]string, error)
	GetProperty(name string) (string, bool, error)
	SetProperty(name, value string) error
}

// Manager is the storage entry point: enumerate top-level pools and
// find or create datasets by full name.
type Manager interface {
	Pools() ([]string, error)

	// GetDataset returns errors.DatasetNotFound when no dataset with the
	// given name exists.
	GetDataset(name string) (Dataset, error)

	// CreateDataset creates the dataset along with any missing
	// intermediate levels. The dataset is not mounted.
	CreateDataset(name string) (Dataset, error)
}
