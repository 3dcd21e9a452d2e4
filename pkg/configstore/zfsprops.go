package configstore

import (
	"strings"

	"github.com/sirupsen/logrus"

	defs "jailcfg/definitions"
	log "jailcfg/logger"
	"jailcfg/pkg/storage"
	"jailcfg/pkg/utils"
)

// ZFSPropertyStore reads and writes jail configuration held as ZFS user
// properties under the reserved org.freebsd.iocage: prefix, the oldest
// encoding still supported for migration.
type ZFSPropertyStore struct {
	dataset storage.Dataset
	logger  *logrus.Entry
}

func NewZFSPropertyStore(dataset storage.Dataset, logger *logrus.Entry) *ZFSPropertyStore {
	if logger == nil {
		logger = log.Entry("configstore")
	}
	return &ZFSPropertyStore{dataset: dataset, logger: logger}
}

func (s *ZFSPropertyStore) Exists() bool {
	props, err := s.dataset.UserProperties()
	if err != nil {
		return false
	}
	for name := range props {
		if strings.HasPrefix(name, defs.ZFSPropertyPrefix) {
			return true
		}
	}
	return false
}

func (s *ZFSPropertyStore) Read() map[string]interface{} {
	data := map[string]interface{}{}
	props, err := s.dataset.UserProperties()
	if err != nil {
		s.logger.WithError(err).Warnf("cannot enumerate properties of %s", s.dataset.Name())
		return data
	}
	for name, value := range props {
		if !strings.HasPrefix(name, defs.ZFSPropertyPrefix) {
			continue
		}
		data[strings.TrimPrefix(name, defs.ZFSPropertyPrefix)] = value
	}
	return data
}

func (s *ZFSPropertyStore) Write(data map[string]interface{}) error {
	keys, canonical := canonicalize(data, utils.DefaultStyle)
	for _, key := range keys {
		if err := s.dataset.SetProperty(defs.ZFSPropertyPrefix+key, canonical[key]); err != nil {
			return err
		}
	}
	return nil
}
