package jailconf

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	jailerr "jailcfg/errors"
	"jailcfg/pkg/utils"
)

// invalidNameChars matches everything outside the allowed identity
// charset; the caret is rejected explicitly.
var invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9._\-]|\^`)

// newRegistry builds the property dispatch table. Every special or
// computed property is bound here at construction time.
func newRegistry() map[string]*handler {
	registry := map[string]*handler{}

	name := &handler{
		get: func(c *JailConfig) (interface{}, bool, error) {
			id, ok := c.data["id"]
			return id, ok, nil
		},
		set: setName,
	}
	for _, alias := range identityAliases {
		registry[alias] = name
	}

	registry["legacy"] = &handler{
		set: func(c *JailConfig, value interface{}, _ bool) error {
			b, _ := value.(bool)
			c.legacy = b
			c.data["legacy"] = b
			return nil
		},
	}

	registry["type"] = &handler{get: getType, set: setType}

	registry["basejail"] = &handler{
		get: getBoolData("basejail"),
		set: func(c *JailConfig, value interface{}, _ bool) error {
			style := utils.DefaultStyle
			if c.legacy {
				style = utils.LegacyStyle
			}
			c.data["basejail"] = utils.ToString(value, style)
			return nil
		},
		def: constantDefault(false),
	}

	// clonejail kept the on/off form across all generations
	registry["clonejail"] = &handler{
		get: getBoolData("clonejail"),
		set: setBoolData("clonejail", utils.LegacyStyle),
		def: constantDefault(true),
	}

	registry["vnet"] = &handler{
		get: getBoolData("vnet"),
		set: setBoolData("vnet", utils.LegacyStyle),
		def: constantDefault(false),
	}

	registry["defaultrouter"] = &handler{get: getRouter("defaultrouter"), set: setRouter("defaultrouter")}
	registry["defaultrouter6"] = &handler{get: getRouter("defaultrouter6"), set: setRouter("defaultrouter6")}

	registry["ip4_addr"] = &handler{get: getAddresses("ip4_addr"), set: setAddresses("ip4_addr")}
	registry["ip6_addr"] = &handler{get: getAddresses("ip6_addr"), set: setAddresses("ip6_addr")}
	registry["interfaces"] = &handler{get: getInterfaces, set: setInterfaces}
	registry["resolver"] = &handler{get: getResolver, set: setResolver}

	registry["cloned_release"] = &handler{get: getClonedRelease}
	registry["basejail_type"] = &handler{get: getBasejailType}

	registry["login_flags"] = &handler{
		get: getLoginFlags,
		set: setLoginFlags,
		def: func(*JailConfig) (interface{}, bool) {
			return []string{"-f", "root"}, true
		},
	}

	registry["host_hostname"] = &handler{get: getHostHostname}
	registry["host_hostuuid"] = &handler{get: getHostHostuuid}

	registry["jail_zfs"] = &handler{get: getJailZFS, set: setJailZFS}
	registry["jail_zfs_dataset"] = &handler{
		get: getJailZFSDataset,
		set: setJailZFSDataset,
		def: func(*JailConfig) (interface{}, bool) {
			return []string{}, true
		},
	}

	return registry
}

// setName validates and assigns the jail identity. Names outside the
// allowed charset get one more chance as a UUID literal, which old
// iocage generations used as jail names.
func setName(c *JailConfig, value interface{}, _ bool) error {
	name, ok := value.(string)
	if !ok {
		return errors.Wrapf(jailerr.InvalidResourceName, "name must be a string, got %T", value)
	}

	// setting the identity to its current value is a no-op; this happens
	// when a jail is initialized with its name and the same name is read
	// back from the configuration
	if c.ID() == name {
		return nil
	}

	if !invalidNameChars.MatchString(name) && name != "" {
		c.data["id"] = name
		return nil
	}

	parsed, err := uuid.Parse(name)
	if err != nil {
		return errors.Wrapf(jailerr.InvalidResourceName, "%q", name)
	}
	c.data["id"] = parsed.String()
	return nil
}

func getType(c *JailConfig) (interface{}, bool, error) {
	if c.GetBool("basejail") {
		return "basejail", true, nil
	}
	if c.GetBool("clonejail") {
		return "clonejail", true, nil
	}
	return "jail", true, nil
}

func setType(c *JailConfig, value interface{}, skipOnError bool) error {
	switch value {
	case "basejail":
		if _, err := c.Set("basejail", true, skipOnError); err != nil {
			return err
		}
		if _, err := c.Set("clonejail", false, skipOnError); err != nil {
			return err
		}
		c.data["type"] = "jail"
	case "clonejail":
		if _, err := c.Set("basejail", false, skipOnError); err != nil {
			return err
		}
		if _, err := c.Set("clonejail", true, skipOnError); err != nil {
			return err
		}
		c.data["type"] = "jail"
	default:
		c.data["type"] = value
	}
	return nil
}

func getBoolData(key string) func(*JailConfig) (interface{}, bool, error) {
	return func(c *JailConfig) (interface{}, bool, error) {
		raw, ok := c.data[key]
		if !ok {
			return nil, false, nil
		}
		return utils.ParseUserInput(raw), true, nil
	}
}

func setBoolData(key string, style utils.StringStyle) func(*JailConfig, interface{}, bool) error {
	return func(c *JailConfig, value interface{}, _ bool) error {
		c.data[key] = utils.ToString(value, style)
		return nil
	}
}

func constantDefault(value interface{}) func(*JailConfig) (interface{}, bool) {
	return func(*JailConfig) (interface{}, bool) {
		return value, true
	}
}

func getRouter(key string) func(*JailConfig) (interface{}, bool, error) {
	return func(c *JailConfig) (interface{}, bool, error) {
		raw, ok := c.data[key]
		if !ok {
			return nil, false, nil
		}
		if raw == nil || raw == "none" {
			return nil, true, nil
		}
		return raw, true, nil
	}
}

func setRouter(key string) func(*JailConfig, interface{}, bool) error {
	return func(c *JailConfig, value interface{}, _ bool) error {
		if value == nil {
			value = "none"
		}
		c.data[key] = value
		return nil
	}
}

func getClonedRelease(c *JailConfig) (interface{}, bool, error) {
	if value, ok := c.data["cloned_release"]; ok {
		return value, true, nil
	}
	if release, err := c.Get("release"); err == nil {
		return release, true, nil
	}
	return nil, false, nil
}

func getBasejailType(c *JailConfig) (interface{}, bool, error) {
	// an explicitly set basejail_type always wins
	if value, ok := c.data["basejail_type"]; ok {
		return value, true, nil
	}
	if c.GetBool("basejail") {
		return "nullfs", true, nil
	}
	return nil, false, nil
}

func getLoginFlags(c *JailConfig) (interface{}, bool, error) {
	raw, ok := c.data["login_flags"]
	if !ok {
		return nil, false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return raw, true, nil
	}
	return strings.Fields(s), true, nil
}

func setLoginFlags(c *JailConfig, value interface{}, _ bool) error {
	switch v := value.(type) {
	case nil:
		delete(c.data, "login_flags")
	case string:
		c.data["login_flags"] = v
	case []string:
		c.data["login_flags"] = strings.Join(v, " ")
	case []interface{}:
		c.data["login_flags"] = utils.ToString(v, utils.DefaultStyle)
	default:
		return errors.Wrapf(jailerr.InvalidPropertyValue, "login_flags: unsupported type %T", value)
	}
	return nil
}

func getHostHostname(c *JailConfig) (interface{}, bool, error) {
	if value, ok := c.data["host_hostname"]; ok {
		return value, true, nil
	}
	if id := c.ID(); id != "" {
		return id, true, nil
	}
	return nil, false, nil
}

func getHostHostuuid(c *JailConfig) (interface{}, bool, error) {
	if value, ok := c.data["host_hostuuid"]; ok {
		return value, true, nil
	}
	if id := c.ID(); id != "" {
		return id, true, nil
	}
	return nil, false, nil
}

func getJailZFS(c *JailConfig) (interface{}, bool, error) {
	raw, ok := c.data["jail_zfs"]
	var enabled bool
	if ok {
		enabled, _ = utils.ParseUserInput(raw).(bool)
	} else {
		enabled = len(jailZFSDatasets(c)) > 0
	}

	if !enabled && len(jailZFSDatasets(c)) > 0 {
		return nil, false, errors.WithStack(jailerr.ZFSNotAllowed)
	}
	return enabled, true, nil
}

func setJailZFS(c *JailConfig, value interface{}, _ bool) error {
	if value == nil {
		delete(c.data, "jail_zfs")
		return nil
	}
	c.data["jail_zfs"] = utils.ToString(value, utils.LegacyStyle)
	return nil
}

func jailZFSDatasets(c *JailConfig) []string {
	raw, ok := c.data["jail_zfs_dataset"].(string)
	if !ok {
		return nil
	}
	return strings.Fields(raw)
}

func getJailZFSDataset(c *JailConfig) (interface{}, bool, error) {
	if _, ok := c.data["jail_zfs_dataset"]; !ok {
		return nil, false, nil
	}
	return jailZFSDatasets(c), true, nil
}

func setJailZFSDataset(c *JailConfig, value interface{}, _ bool) error {
	switch v := value.(type) {
	case string:
		c.data["jail_zfs_dataset"] = v
	case []string:
		c.data["jail_zfs_dataset"] = strings.Join(v, " ")
	case []interface{}:
		c.data["jail_zfs_dataset"] = utils.ToString(v, utils.DefaultStyle)
	default:
		return errors.Wrapf(jailerr.InvalidPropertyValue, "jail_zfs_dataset: unsupported type %T", value)
	}
	return nil
}
