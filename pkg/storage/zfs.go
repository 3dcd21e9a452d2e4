package storage

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	jailerr "jailcfg/errors"
	log "jailcfg/logger"
)

// ZFSManager drives the zfs/zpool command line tools. It is the only
// storage implementation that touches the real system.
type ZFSManager struct {
	logger *logrus.Entry
}

func NewZFSManager(logger *logrus.Entry) *ZFSManager {
	if logger == nil {
		logger = log.Entry("storage")
	}
	return &ZFSManager{logger: logger}
}

func (m *ZFSManager) Pools() ([]string, error) {
	out, err := m.run("zpool", "list", "-H", "-o", "name")
	if err != nil {
		return nil, err
	}
	var pools []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			pools = append(pools, line)
		}
	}
	return pools, nil
}

func (m *ZFSManager) GetDataset(name string) (Dataset, error) {
	out, err := m.run("zfs", "list", "-H", "-o", "name,mountpoint", name)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil, errors.Wrapf(jailerr.DatasetNotFound, "dataset %q", name)
		}
		return nil, err
	}
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 2 {
		return nil, errors.Wrapf(jailerr.ParseFailed, "unexpected zfs list output: %q", out)
	}
	return &zfsDataset{mgr: m, name: fields[0], mountpoint: fields[1]}, nil
}

func (m *ZFSManager) CreateDataset(name string) (Dataset, error) {
	if _, err := m.run("zfs", "create", "-p", name); err != nil {
		return nil, err
	}
	m.logger.WithField("dataset", name).Info("created dataset")
	return m.GetDataset(name)
}

func (m *ZFSManager) run(command string, args ...string) (string, error) {
	m.logger.Debugf("exec: %s %s", command, strings.Join(args, " "))
	out, err := exec.Command(command, args...).CombinedOutput()
	if err != nil {
		return "", errors.Errorf("%s %s: %v: %s",
			command, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

type zfsDataset struct {
	mgr        *ZFSManager
	name       string
	mountpoint string
}

func (d *zfsDataset) Name() string {
	return d.name
}

func (d *zfsDataset) Mountpoint() string {
	return d.mountpoint
}

func (d *zfsDataset) Mounted() bool {
	out, err := d.mgr.run("zfs", "get", "-H", "-o", "value", "mounted", d.name)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "yes"
}

func (d *zfsDataset) Mount() error {
	if d.Mounted() {
		return nil
	}
	_, err := d.mgr.run("zfs", "mount", d.name)
	return err
}

func (d *zfsDataset) UserProperties() (map[string]string, error) {
	out, err := d.mgr.run("zfs", "get", "-H", "-o", "property,value", "-s", "local", "all", d.name)
	if err != nil {
		return nil, err
	}
	props := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.SplitN(strings.TrimSpace(line), "\t", 2)
		if len(fields) != 2 {
			continue
		}
		// user properties always contain a colon
		if strings.Contains(fields[0], ":") {
			props[fields[0]] = fields[1]
		}
	}
	return props, nil
}

func (d *zfsDataset) GetProperty(name string) (string, bool, error) {
	props, err := d.UserProperties()
	if err != nil {
		return "", false, err
	}
	value, ok := props[name]
	return value, ok, nil
}

func (d *zfsDataset) SetProperty(name, value string) error {
	_, err := d.mgr.run("zfs", "set", name+"="+value, d.name)
	return err
}
