package jailconf

import (
	"strings"

	"github.com/pkg/errors"

	jailerr "jailcfg/errors"
	"jailcfg/pkg/utils"
)

// resolverDirectives are the resolv.conf keywords a resolver entry may
// start with.
var resolverDirectives = []string{"nameserver", "search", "domain", "options"}

// Resolver holds the jail's resolv.conf directives. Entries are
// serialized joined by semicolons. The notify flag of Apply/Merge
// controls whether the serialized form is pushed back into the plain
// store so it persists even though ownership is special.
type Resolver struct {
	conf    *JailConfig
	entries []string
}

func (r *Resolver) Entries() []string {
	return append([]string(nil), r.entries...)
}

func (r *Resolver) String() string {
	return strings.Join(r.entries, ";")
}

// Apply replaces all entries with the parsed value.
func (r *Resolver) Apply(value interface{}, notify bool) error {
	entries, err := parseResolverValue(value)
	if err != nil {
		return err
	}
	r.entries = entries
	if notify {
		r.conf.updateSpecialProperty("resolver")
	}
	return nil
}

// Merge adds the parsed entries that are not present yet, keeping the
// existing ones.
func (r *Resolver) Merge(value interface{}, notify bool) error {
	entries, err := parseResolverValue(value)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !utils.InList(r.entries, entry) {
			r.entries = append(r.entries, entry)
		}
	}
	if notify {
		r.conf.updateSpecialProperty("resolver")
	}
	return nil
}

func parseResolverValue(value interface{}) ([]string, error) {
	var raw []string
	switch v := value.(type) {
	case nil:
	case string:
		raw = strings.Split(v, ";")
	case []string:
		raw = v
	case []interface{}:
		for _, item := range v {
			raw = append(raw, utils.ToString(item, utils.DefaultStyle))
		}
	default:
		return nil, errors.Wrapf(jailerr.InvalidPropertyValue, "resolver: unsupported type %T", value)
	}

	var entries []string
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		directive := strings.Fields(entry)[0]
		if !utils.InList(resolverDirectives, directive) && !strings.HasPrefix(entry, "#") {
			return nil, errors.Wrapf(jailerr.InvalidPropertyValue, "resolver: unknown directive in %q", entry)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ensureResolver returns the live resolver, creating it from the plain
// store or the defaults cascade on first access.
func (c *JailConfig) ensureResolver() (*Resolver, error) {
	if sp, ok := c.special["resolver"]; ok {
		return sp.(*Resolver), nil
	}

	r := &Resolver{conf: c}
	value, ok := c.data["resolver"]
	if !ok && !c.isDefaults {
		if inherited, err := c.Defaults().Get("resolver"); err == nil {
			value = utils.ToString(inherited, utils.DefaultStyle)
		}
	}
	if err := r.Apply(value, false); err != nil {
		return nil, err
	}
	c.special["resolver"] = r
	return r, nil
}

func getResolver(c *JailConfig) (interface{}, bool, error) {
	r, err := c.ensureResolver()
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func setResolver(c *JailConfig, value interface{}, _ bool) error {
	if s, ok := value.(string); ok {
		c.data["resolver"] = s
	}
	r, err := c.ensureResolver()
	if err != nil {
		return err
	}
	return r.Apply(value, true)
}
