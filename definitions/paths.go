package defs

import "os"

const (
	// Dataset layout below the activated pool.
	RootDatasetName     = "iocage"
	JailsDatasetName    = "jails"
	ReleasesDatasetName = "releases"

	DirMode  = os.FileMode(0700) | os.ModeDir
	FileMode = os.FileMode(0644)
)

const (
	// File names inside a resource dataset mountpoint.
	JSONConfigName   = "config.json"
	LegacyConfigName = "config"
	FstabName        = "fstab"
	RCConfName       = "rc.conf"

	// DefaultsFileName is the shared defaults template on the root dataset.
	DefaultsFileName = "defaults.json"

	// ZFSPropertyPrefix marks jail configuration stored as ZFS user
	// properties by iocage-legacy.
	ZFSPropertyPrefix = "org.freebsd.iocage:"

	// AutoCommentIdentifier tags generated fstab lines. Lines carrying it
	// are never imported back, only regenerated.
	AutoCommentIdentifier = "iocage-auto"
)
