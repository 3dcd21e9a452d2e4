package configstore

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/gookit/ini/v2"
	"github.com/sirupsen/logrus"

	defs "jailcfg/definitions"
	log "jailcfg/logger"
	"jailcfg/pkg/utils"
)

// legacySection is a synthetic section header prepended before parsing,
// so the flat file never depends on the parser's default-section name.
const legacySection = "config"

// LegacyStore reads and writes the iocage-legacy flat `config` file:
// one `key = value` pair per line, values optionally quoted, trailing
// semicolons from the UCL era tolerated on read.
type LegacyStore struct {
	path   string
	logger *logrus.Entry
}

func NewLegacyStore(path string, logger *logrus.Entry) *LegacyStore {
	if logger == nil {
		logger = log.Entry("configstore")
	}
	return &LegacyStore{path: path, logger: logger}
}

func (s *LegacyStore) Exists() bool {
	return utils.IsRegular(s.path)
}

func (s *LegacyStore) Read() map[string]interface{} {
	content, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.WithError(err).Debugf("no readable legacy config at %s", s.path)
		return map[string]interface{}{}
	}

	parser := ini.New()
	if err := parser.LoadStrings(prepareLegacyInput(string(content))); err != nil {
		s.logger.WithError(err).Warnf("ignoring corrupt legacy config at %s", s.path)
		return map[string]interface{}{}
	}

	data := map[string]interface{}{}
	for key, value := range parser.StringMap(legacySection) {
		data[key] = value
	}
	return data
}

// Write emits sorted `key = value` lines with legacy on/off booleans and
// fully replaces the file content.
func (s *LegacyStore) Write(data map[string]interface{}) error {
	keys, canonical := canonicalize(data, utils.LegacyStyle)

	var buf bytes.Buffer
	for _, key := range keys {
		fmt.Fprintf(&buf, "%s = %s\n", key, canonical[key])
	}
	return utils.ReplaceFileContent(s.path, buf.Bytes(), defs.FileMode)
}

func prepareLegacyInput(content string) string {
	lines := strings.Split(content, "\n")
	prepared := make([]string, 0, len(lines)+1)
	prepared = append(prepared, "["+legacySection+"]")
	for _, line := range lines {
		prepared = append(prepared, strings.TrimSuffix(strings.TrimSpace(line), ";"))
	}
	return strings.Join(prepared, "\n")
}
