// Package fstab models a jail's mount table: explicit entries parsed
// from the fstab file plus basejail bind-mount entries computed from
// the jail configuration. Generated entries appear in iteration and
// serialization but are never part of the persisted set.
package fstab

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	defs "jailcfg/definitions"
	log "jailcfg/logger"
	"jailcfg/pkg/release"
	"jailcfg/pkg/utils"
)

// Entry is one six-field mount table line with an optional comment.
type Entry struct {
	Source      string
	Destination string
	Type        string
	Options     string
	Dump        string
	PassNum     string
	Comment     string
}

// String renders the entry tab-separated, with the comment appended
// after a ` # ` marker when present.
func (e Entry) String() string {
	line := strings.Join([]string{
		e.Source,
		e.Destination,
		e.Type,
		e.Options,
		e.Dump,
		e.PassNum,
	}, "\t")
	if e.Comment != "" {
		line += " # " + e.Comment
	}
	return line
}

// Generated reports whether the entry carries the auto-creation tag.
func (e Entry) Generated() bool {
	return e.Comment == defs.AutoCommentIdentifier
}

// Jail supplies the configuration the mount table derives its generated
// entries from.
type Jail interface {
	Basejail() bool
	BasejailType() string
	ClonedRelease() string
	Distribution() string

	// Path is the jail dataset mountpoint; the fstab file and the jail
	// root live below it.
	Path() string
	// ReleasesMountpoint is where release trees are mounted.
	ReleasesMountpoint() string
}

// Fstab is the mount table of one jail. Explicit entries are keyed by
// destination: two entries with the same destination are the same slot
// and the last write wins.
type Fstab struct {
	jail     Jail
	entries  map[string]Entry
	order    []string
	basedirs func(distribution string) []string
	logger   *logrus.Entry
}

func New(jail Jail, logger *logrus.Entry) *Fstab {
	if logger == nil {
		logger = log.Entry("fstab")
	}
	return &Fstab{
		jail:     jail,
		entries:  map[string]Entry{},
		basedirs: release.Basedirs,
		logger:   logger,
	}
}

// Path is the fstab file location inside the jail dataset.
func (f *Fstab) Path() string {
	return filepath.Join(f.jail.Path(), defs.FstabName)
}

// Parse resets the table and reads entries from text. Lines that do not
// split into exactly six fields are skipped with a warning. Lines
// tagged with the auto-creation comment are discarded when
// ignoreAutoCreated is set; they are regenerated, never imported.
func (f *Fstab) Parse(text string, ignoreAutoCreated bool) {
	f.entries = map[string]Entry{}
	f.order = nil

	for _, raw := range strings.Split(text, "\n") {
		line := raw
		comment := ""
		if idx := strings.Index(line, "#"); idx >= 0 {
			comment = strings.Trim(line[idx:], "# ")
			line = line[:idx]
		}
		if ignoreAutoCreated && comment == defs.AutoCommentIdentifier {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 6 {
			f.logger.Warnf("invalid line in fstab file %s - skipping line", f.Path())
			continue
		}

		entry := Entry{
			Source:      fields[0],
			Destination: fields[1],
			Type:        fields[2],
			Options:     fields[3],
			Dump:        fields[4],
			PassNum:     fields[5],
			Comment:     comment,
		}
		if _, exists := f.entries[destinationKey(entry.Destination)]; exists {
			f.logger.Errorf("duplicate mountpoint in fstab: %s already mounted", entry.Destination)
		}
		f.addEntry(entry)
	}
}

// Add inserts or overwrites the entry keyed by destination.
func (f *Fstab) Add(source, destination, fsType, options, dump, passnum, comment string) {
	if fsType == "" {
		fsType = "nullfs"
	}
	if options == "" {
		options = "ro"
	}
	if dump == "" {
		dump = "0"
	}
	if passnum == "" {
		passnum = "0"
	}
	f.addEntry(Entry{
		Source:      source,
		Destination: destination,
		Type:        fsType,
		Options:     options,
		Dump:        dump,
		PassNum:     passnum,
		Comment:     comment,
	})
}

func (f *Fstab) addEntry(entry Entry) {
	f.logger.Debugf("adding line to fstab: %s", entry)
	key := destinationKey(entry.Destination)
	if _, exists := f.entries[key]; !exists {
		f.order = append(f.order, key)
	}
	f.entries[key] = entry
}

// Entries returns the explicit entries in stable insertion order.
func (f *Fstab) Entries() []Entry {
	entries := make([]Entry, 0, len(f.order))
	for _, key := range f.order {
		entries = append(entries, f.entries[key])
	}
	return entries
}

// BasejailLines computes the read-only nullfs entries of a nullfs
// basejail, one per release base directory. The result is derived from
// the current configuration on every call and is never cached or
// persisted.
func (f *Fstab) BasejailLines() []Entry {
	if f.jail == nil || !f.jail.Basejail() || f.jail.BasejailType() != "nullfs" {
		return nil
	}

	cloned := f.jail.ClonedRelease()
	var lines []Entry
	for _, basedir := range f.basedirs(f.jail.Distribution()) {
		lines = append(lines, Entry{
			Source:      filepath.Join(f.jail.ReleasesMountpoint(), cloned, "root", basedir),
			Destination: filepath.Join(f.jail.Path(), "root", basedir),
			Type:        "nullfs",
			Options:     "ro",
			Dump:        "0",
			PassNum:     "0",
			Comment:     defs.AutoCommentIdentifier,
		})
	}
	return lines
}

// Lines returns the full iteration view: explicit entries followed by
// the computed basejail entries.
func (f *Fstab) Lines() []Entry {
	return append(f.Entries(), f.BasejailLines()...)
}

// String serializes the full view with a final trailing newline.
func (f *Fstab) String() string {
	lines := f.Lines()
	rendered := make([]string, len(lines))
	for i, entry := range lines {
		rendered[i] = entry.String()
	}
	return strings.Join(rendered, "\n") + "\n"
}

// ReadFile loads the fstab file if present, dropping previously
// generated lines.
func (f *Fstab) ReadFile() error {
	if !utils.IsRegular(f.Path()) {
		return nil
	}
	content, err := os.ReadFile(f.Path())
	if err != nil {
		return err
	}
	f.Parse(string(content), true)
	f.logger.Debugf("fstab loaded from %s", f.Path())
	return nil
}

// Save writes the table, recomputing generated lines fresh rather than
// trusting any previously written copy.
func (f *Fstab) Save() error {
	f.logger.Debugf("writing fstab to %s", f.Path())
	return utils.ReplaceFileContent(f.Path(), []byte(f.String()), defs.FileMode)
}

// destinationKey normalizes a destination so differently spelled paths
// land in the same slot.
func destinationKey(destination string) string {
	return filepath.Clean(destination)
}
