// Package jail ties a resolved resource, its configuration and its
// mount table together into one administrative unit.
package jail

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	defs "jailcfg/definitions"
	log "jailcfg/logger"
	"jailcfg/pkg/fstab"
	"jailcfg/pkg/jailconf"
	"jailcfg/pkg/rcconf"
	"jailcfg/pkg/release"
	"jailcfg/pkg/resource"
)

type Options struct {
	Resource *resource.Resource
	// ReleasesMountpoint is where release trees live; basejail fstab
	// entries bind out of it.
	ReleasesMountpoint string
	// Distribution defaults to the detected host distribution.
	Distribution string
	// DefaultsPath defaults to defaults.json next to the releases tree's
	// parent (the root dataset mountpoint).
	DefaultsPath string
	// RC defaults to a file sink at the resource's rc.conf.
	RC     rcconf.Sink
	Logger *logrus.Entry
}

// Jail is one configured jail resource.
type Jail struct {
	Resource *resource.Resource
	Config   *jailconf.JailConfig
	RC       rcconf.Sink

	releases     string
	distribution string
	fstab        *fstab.Fstab
	logger       *logrus.Entry
}

func New(opts Options) (*Jail, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Entry("jail")
	}

	rc := opts.RC
	if rc == nil {
		rc = rcconf.NewFile(opts.Resource.RCConfPath(), logger)
	}

	distribution := opts.Distribution
	if distribution == "" {
		distribution = release.DetectDistribution()
	}

	defaultsPath := opts.DefaultsPath
	if defaultsPath == "" && opts.ReleasesMountpoint != "" {
		defaultsPath = filepath.Join(filepath.Dir(opts.ReleasesMountpoint), defs.DefaultsFileName)
	}

	config, err := jailconf.New(jailconf.Options{
		Resource:     opts.Resource,
		RC:           rc,
		DefaultsPath: defaultsPath,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &Jail{
		Resource:     opts.Resource,
		Config:       config,
		RC:           rc,
		releases:     opts.ReleasesMountpoint,
		distribution: distribution,
		logger:       logger,
	}, nil
}

// Fstab returns the jail's mount table, loading the fstab file on first
// access.
func (j *Jail) Fstab() (*fstab.Fstab, error) {
	if j.fstab == nil {
		f := fstab.New(j, j.logger)
		if err := f.ReadFile(); err != nil {
			return nil, err
		}
		j.fstab = f
	}
	return j.fstab, nil
}

// Name is the human-readable jail name, falling back to the resource
// name while the config carries no identity.
func (j *Jail) Name() string {
	if id := j.Config.ID(); id != "" {
		return id
	}
	return j.Resource.Name
}

func (j *Jail) Basejail() bool {
	return j.Config.GetBool("basejail")
}

func (j *Jail) BasejailType() string {
	value, err := j.Config.GetString("basejail_type")
	if err != nil {
		return ""
	}
	return value
}

func (j *Jail) ClonedRelease() string {
	value, err := j.Config.GetString("cloned_release")
	if err != nil {
		return ""
	}
	return value
}

func (j *Jail) Distribution() string {
	return j.distribution
}

func (j *Jail) Path() string {
	return j.Resource.Path()
}

func (j *Jail) ReleasesMountpoint() string {
	return j.releases
}
