// Package rcconf is the run-control settings sink: special properties
// push boolean flag updates here, and a save after every config write
// lands them in the jail's rc.conf.
package rcconf

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	defs "jailcfg/definitions"
	log "jailcfg/logger"
	"jailcfg/pkg/utils"
)

// Sink accepts boolean flag updates. Set only records the flag; Save
// persists all recorded flags.
type Sink interface {
	Set(name string, enabled bool)
	Save() error
}

// Memory records flags without touching the filesystem. Used in tests
// and for detached configurations.
type Memory struct {
	Flags map[string]bool
	Saves int
}

func NewMemory() *Memory {
	return &Memory{Flags: map[string]bool{}}
}

func (m *Memory) Set(name string, enabled bool) {
	m.Flags[name] = enabled
}

func (m *Memory) Save() error {
	m.Saves++
	return nil
}

// File maintains `name="YES"` style assignments in an rc.conf file,
// preserving unmanaged lines.
type File struct {
	path   string
	flags  map[string]bool
	logger *logrus.Entry
}

func NewFile(path string, logger *logrus.Entry) *File {
	if logger == nil {
		logger = log.Entry("rcconf")
	}
	return &File{path: path, flags: map[string]bool{}, logger: logger}
}

func (f *File) Set(name string, enabled bool) {
	f.flags[name] = enabled
}

func (f *File) Save() error {
	if len(f.flags) == 0 {
		return nil
	}

	var kept []string
	if content, err := os.ReadFile(f.path); err == nil {
		for _, line := range strings.Split(strings.TrimRight(string(content), "\n"), "\n") {
			if _, managed := f.flags[assignmentName(line)]; !managed {
				kept = append(kept, line)
			}
		}
	}

	names := make([]string, 0, len(f.flags))
	for name := range f.flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := "NO"
		if f.flags[name] {
			value = "YES"
		}
		kept = append(kept, fmt.Sprintf("%s=\"%s\"", name, value))
	}

	content := strings.Join(kept, "\n") + "\n"
	f.logger.Debugf("writing %d managed flags to %s", len(f.flags), f.path)
	return utils.ReplaceFileContent(f.path, []byte(content), defs.FileMode)
}

func assignmentName(line string) string {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[:idx])
}
