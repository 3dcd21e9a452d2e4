package jailconf

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	jailerr "jailcfg/errors"
	"jailcfg/pkg/utils"
)

// interfacePattern covers plain interface names and vnet nic:bridge
// pairs.
var interfacePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*(:[A-Za-z][A-Za-z0-9_.]*)?$`)

// InterfaceList is the validated form of the interfaces special
// property used for VNET configuration.
type InterfaceList struct {
	names []string
}

func (l *InterfaceList) Names() []string {
	return append([]string(nil), l.names...)
}

func (l *InterfaceList) String() string {
	return strings.Join(l.names, " ")
}

func parseInterfaceList(value interface{}) (*InterfaceList, error) {
	var tokens []string
	switch v := value.(type) {
	case nil:
	case string:
		tokens = splitList(v)
	case []string:
		tokens = v
	case []interface{}:
		for _, item := range v {
			tokens = append(tokens, utils.ToString(item, utils.DefaultStyle))
		}
	default:
		return nil, errors.Wrapf(jailerr.InvalidPropertyValue, "interfaces: unsupported type %T", value)
	}

	list := &InterfaceList{}
	for _, token := range tokens {
		if !interfacePattern.MatchString(token) {
			return nil, errors.Wrapf(jailerr.InvalidPropertyValue, "interfaces: invalid interface %q", token)
		}
		list.names = append(list.names, token)
	}
	return list, nil
}

func getInterfaces(c *JailConfig) (interface{}, bool, error) {
	if sp, ok := c.special["interfaces"]; ok {
		return sp, true, nil
	}
	return nil, false, nil
}

func setInterfaces(c *JailConfig, value interface{}, _ bool) error {
	list, err := parseInterfaceList(value)
	if err != nil {
		return err
	}
	c.special["interfaces"] = list
	c.updateSpecialProperty("interfaces")
	return nil
}
