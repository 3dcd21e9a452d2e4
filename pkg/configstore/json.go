package configstore

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"

	defs "jailcfg/definitions"
	log "jailcfg/logger"
	"jailcfg/pkg/utils"
)

// JSONStore reads and writes the current config.json encoding.
type JSONStore struct {
	path   string
	logger *logrus.Entry
}

func NewJSONStore(path string, logger *logrus.Entry) *JSONStore {
	if logger == nil {
		logger = log.Entry("configstore")
	}
	return &JSONStore{path: path, logger: logger}
}

func (s *JSONStore) Exists() bool {
	return utils.IsRegular(s.path)
}

func (s *JSONStore) Read() map[string]interface{} {
	content, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.WithError(err).Debugf("no readable config at %s", s.path)
		return map[string]interface{}{}
	}

	data := map[string]interface{}{}
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		s.logger.WithError(err).Warnf("ignoring corrupt config at %s", s.path)
		return map[string]interface{}{}
	}
	return data
}

// Write renders the mapping with sorted keys and 4-space indentation and
// fully replaces the file content.
func (s *JSONStore) Write(data map[string]interface{}) error {
	_, canonical := canonicalize(data, utils.DefaultStyle)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(canonical); err != nil {
		return err
	}

	return utils.ReplaceFileContent(s.path, buf.Bytes(), defs.FileMode)
}
