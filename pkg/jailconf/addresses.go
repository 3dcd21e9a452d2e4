package jailconf

import (
	"net"
	"strings"

	"github.com/pkg/errors"

	jailerr "jailcfg/errors"
	"jailcfg/pkg/utils"
)

// rtadvToken inside an ip6_addr value means the jail expects router
// advertisements; applying such a value must enable the rtsold flag on
// the run-control sink, and applying one without it must disable it.
const rtadvToken = "accept_rtadv"

// addressKeywords are accepted in place of a literal address.
var addressKeywords = []string{"dhcp", "rarp", "accept_rtadv", "none"}

// AddressPair is one interface|address element of an address list.
type AddressPair struct {
	Nic     string
	Address string
}

func (p AddressPair) String() string {
	if p.Nic == "" {
		return p.Address
	}
	return p.Nic + "|" + p.Address
}

// AddressList is the validated form of the ip4_addr/ip6_addr special
// properties.
type AddressList struct {
	name  string
	pairs []AddressPair
}

func (a *AddressList) Pairs() []AddressPair {
	return append([]AddressPair(nil), a.pairs...)
}

func (a *AddressList) String() string {
	parts := make([]string, len(a.pairs))
	for i, pair := range a.pairs {
		parts[i] = pair.String()
	}
	return strings.Join(parts, ",")
}

// parseAddressList validates a delimiter-separated list of
// interface|address pairs.
func parseAddressList(name string, value interface{}) (*AddressList, error) {
	list := &AddressList{name: name}

	var tokens []string
	switch v := value.(type) {
	case nil:
		return list, nil
	case string:
		tokens = splitList(v)
	case []string:
		tokens = v
	case []interface{}:
		for _, item := range v {
			tokens = append(tokens, utils.ToString(item, utils.DefaultStyle))
		}
	default:
		return nil, errors.Wrapf(jailerr.InvalidPropertyValue, "%s: unsupported type %T", name, value)
	}

	for _, token := range tokens {
		pair := AddressPair{Address: token}
		if idx := strings.Index(token, "|"); idx >= 0 {
			pair.Nic = token[:idx]
			pair.Address = token[idx+1:]
		}
		if err := validateAddress(pair.Address); err != nil {
			return nil, errors.Wrapf(jailerr.InvalidPropertyValue, "%s: %v", name, err)
		}
		list.pairs = append(list.pairs, pair)
	}
	return list, nil
}

func validateAddress(address string) error {
	if utils.InList(addressKeywords, strings.ToLower(address)) {
		return nil
	}
	candidate := address
	if strings.Contains(candidate, "/") {
		ip, _, err := net.ParseCIDR(candidate)
		if err != nil || ip == nil {
			return errors.Errorf("invalid address %q", address)
		}
		return nil
	}
	if net.ParseIP(candidate) == nil {
		return errors.Errorf("invalid address %q", address)
	}
	return nil
}

func getAddresses(key string) func(*JailConfig) (interface{}, bool, error) {
	return func(c *JailConfig) (interface{}, bool, error) {
		if sp, ok := c.special[key]; ok {
			return sp, true, nil
		}
		return nil, false, nil
	}
}

func setAddresses(key string) func(*JailConfig, interface{}, bool) error {
	return func(c *JailConfig, value interface{}, _ bool) error {
		list, err := parseAddressList(key, value)
		if err != nil {
			return err
		}
		c.special[key] = list
		c.updateSpecialProperty(key)

		if key == "ip6_addr" {
			// explicit post-commit side effect: the flag follows the
			// token's presence in both directions
			c.rcSet("rtsold_enable", strings.Contains(list.String(), rtadvToken))
		}
		return nil
	}
}

// splitList splits on commas and whitespace, dropping empty fields.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
