// Package jailconf implements the jail configuration model: a flat
// property store with special-property dispatch, a defaults cascade and
// format-aware read/save across the three supported config encodings.
package jailconf

import (
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	jailerr "jailcfg/errors"
	log "jailcfg/logger"
	"jailcfg/pkg/configstore"
	"jailcfg/pkg/rcconf"
	"jailcfg/pkg/resource"
	"jailcfg/pkg/utils"
)

// identityAliases are interchangeable names for the jail identity. The
// first one present in an input mapping wins; once the id is set, later
// occurrences during a bulk update are no-ops.
var identityAliases = []string{"id", "name", "uuid"}

// SpecialProperty is a live, structured property value. It renders
// itself to the canonical string that gets persisted in the plain store.
type SpecialProperty interface {
	String() string
}

// handler owns get/set/default behavior for one property name. Handlers
// are looked up in an explicit registry; there is no name-based
// reflection involved.
type handler struct {
	// get returns ok=false to fall through to the plain store.
	get func(c *JailConfig) (interface{}, bool, error)
	set func(c *JailConfig, value interface{}, skipOnError bool) error
	// def supplies the built-in default consulted at the end of the
	// cascade.
	def func(c *JailConfig) (interface{}, bool)
}

// Options configures a new JailConfig.
type Options struct {
	// Resource binds Read/Save to a backing dataset. A detached config
	// (defaults template, tests) may leave it nil.
	Resource *resource.Resource
	// RC receives cross-cutting flag updates (e.g. rtsold_enable) and is
	// notified after every save.
	RC rcconf.Sink
	// DefaultsPath points at the shared defaults template; empty
	// disables the file-backed tier of the cascade.
	DefaultsPath string
	Logger       *logrus.Entry
	// Data seeds the configuration through a bulk apply.
	Data map[string]interface{}
}

// JailConfig is the in-memory configuration of a jail resource.
type JailConfig struct {
	data     map[string]interface{}
	special  map[string]SpecialProperty
	registry map[string]*handler

	legacy   bool
	encoding resource.ConfigType

	rsrc         *resource.Resource
	rc           rcconf.Sink
	defaultsPath string
	defaults     *JailConfig
	isDefaults   bool

	logger *logrus.Entry
}

func New(opts Options) (*JailConfig, error) {
	c := newEmpty(opts)
	if opts.Data != nil {
		if legacy, ok := utils.ParseUserInput(opts.Data["legacy"]).(bool); ok {
			c.legacy = legacy
		}
		if err := c.BulkApply(opts.Data, false); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newEmpty(opts Options) *JailConfig {
	logger := opts.Logger
	if logger == nil {
		logger = log.Entry("jailconf")
	}
	c := &JailConfig{
		data:         map[string]interface{}{},
		special:      map[string]SpecialProperty{},
		registry:     newRegistry(),
		rsrc:         opts.Resource,
		rc:           opts.RC,
		defaultsPath: opts.DefaultsPath,
		logger:       logger,
	}
	if opts.Resource != nil {
		c.encoding = opts.Resource.ConfigType
		c.legacy = c.encoding.Legacy()
	}
	return c
}

// ID returns the jail identity, or "" while unset.
func (c *JailConfig) ID() string {
	id, _ := c.data["id"].(string)
	return id
}

// Legacy reports whether the configuration was loaded from a deprecated
// encoding.
func (c *JailConfig) Legacy() bool {
	return c.legacy
}

// Get resolves key through the ordered chain: special handler getter,
// plain store, defaults cascade. It fails with PropertyNotFound only
// when all tiers miss.
func (c *JailConfig) Get(key string) (interface{}, error) {
	value, ok, err := c.getUser(key)
	if err != nil {
		return nil, err
	}
	if ok {
		return value, nil
	}

	if !c.isDefaults {
		if value, err := c.Defaults().Get(key); err == nil {
			return value, nil
		}
	}
	if h, ok := c.registry[key]; ok && h.def != nil {
		if value, ok := h.def(c); ok {
			return value, nil
		}
	}
	return nil, errors.Wrapf(jailerr.PropertyNotFound, "property %q", key)
}

// GetString resolves key like Get and renders the result to canonical
// string form.
func (c *JailConfig) GetString(key string) (string, error) {
	value, err := c.Get(key)
	if err != nil {
		return "", err
	}
	return utils.ToString(value, utils.DefaultStyle), nil
}

// GetBool resolves key and coerces the result to a boolean; unset and
// non-boolean values report false.
func (c *JailConfig) GetBool(key string) bool {
	value, err := c.Get(key)
	if err != nil {
		return false
	}
	b, _ := utils.ParseUserInput(value).(bool)
	return b
}

// getUser resolves the user tiers only (special handler, then plain
// store), without the defaults cascade.
func (c *JailConfig) getUser(key string) (interface{}, bool, error) {
	if h, ok := c.registry[key]; ok && h.get != nil {
		value, ok, err := h.get(c)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return value, true, nil
		}
	}
	if value, ok := c.data[key]; ok {
		return value, true, nil
	}
	return nil, false, nil
}

// userString renders the user-tier value of key, reporting whether one
// exists. Used for change detection around Set.
func (c *JailConfig) userString(key string) (string, bool) {
	value, ok, err := c.getUser(key)
	if err != nil || !ok {
		return "", false
	}
	return utils.ToString(value, utils.DefaultStyle), true
}

// Set coerces value to its canonical shape and applies it. When a
// special handler owns key, validation failures fail with
// InvalidPropertyValue unless skipOnError is set, in which case the
// raw, unvalidated value lands in the plain store. The returned bool
// reports whether the canonical value differs from the value
// immediately before the call.
func (c *JailConfig) Set(key string, value interface{}, skipOnError bool) (bool, error) {
	before, hadBefore := c.userString(key)

	parsed := utils.ParseUserInput(value)
	if h, ok := c.registry[key]; ok && h.set != nil {
		if err := h.set(c, parsed, skipOnError); err != nil {
			if !skipOnError {
				return false, err
			}
			// deliberate escape hatch for lenient bulk imports
			c.logger.WithError(err).Warnf("property %q failed validation, storing raw value", key)
			c.data[key] = value
		}
	} else {
		c.data[key] = parsed
	}

	after, hasAfter := c.userString(key)
	return before != after || hadBefore != hasAfter, nil
}

// BulkApply applies every pair through Set. Identity aliases are pinned
// to the existing id once set, and are otherwise consumed in the fixed
// priority order id, name, uuid. Validation failures are collected per
// key and reported together.
func (c *JailConfig) BulkApply(data map[string]interface{}, skipOnError bool) error {
	currentID := c.ID()

	keys := make([]string, 0, len(data))
	for key := range data {
		if !utils.InList(identityAliases, key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	ordered := make([]string, 0, len(data))
	for _, alias := range identityAliases {
		if _, ok := data[alias]; ok {
			ordered = append(ordered, alias)
		}
	}
	ordered = append(ordered, keys...)

	var result *multierror.Error
	for _, key := range ordered {
		value := data[key]
		if utils.InList(identityAliases, key) && currentID != "" {
			value = currentID
		}
		if _, err := c.Set(key, value, skipOnError); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if currentID == "" {
			currentID = c.ID()
		}
	}
	return result.ErrorOrNil()
}

// updateSpecialProperty pushes the canonical rendering of a live
// special property back into the plain store, so it persists.
func (c *JailConfig) updateSpecialProperty(name string) {
	if sp, ok := c.special[name]; ok {
		c.data[name] = sp.String()
	}
}

func (c *JailConfig) rcSet(name string, enabled bool) {
	if c.rc != nil {
		c.rc.Set(name, enabled)
	}
}

// Defaults returns the lazily-loaded defaults cascade. Missing or
// corrupt defaults files behave like an empty template.
func (c *JailConfig) Defaults() *JailConfig {
	if c.defaults == nil {
		d := newEmpty(Options{Logger: c.logger})
		d.isDefaults = true
		if c.defaultsPath != "" {
			data := configstore.NewJSONStore(c.defaultsPath, c.logger).Read()
			if err := d.BulkApply(data, true); err != nil {
				c.logger.WithError(err).Warnf("defaults template %s partially applied", c.defaultsPath)
			}
		}
		c.defaults = d
	}
	return c.defaults
}

// AllProperties returns the sorted names carrying either an explicit
// value or a registered default.
func (c *JailConfig) AllProperties() []string {
	seen := map[string]bool{}
	for key := range c.data {
		seen[key] = true
	}
	for key, h := range c.registry {
		if h.def != nil {
			seen[key] = true
		}
	}
	if !c.isDefaults {
		for key := range c.Defaults().data {
			seen[key] = true
		}
	}

	names := make([]string, 0, len(seen))
	for key := range seen {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
