// Package release answers which base directories a basejail bind-mounts
// from its release tree, and which distribution the host runs.
package release

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// basedirs is the ordered list of release directories shared read-only
// into a nullfs basejail.
var basedirs = []string{
	"bin",
	"boot",
	"lib",
	"libexec",
	"rescue",
	"sbin",
	"usr/bin",
	"usr/include",
	"usr/lib",
	"usr/libexec",
	"usr/sbin",
	"usr/share",
	"usr/src",
}

// Basedirs returns the ordered base directory list for a distribution.
func Basedirs(distribution string) []string {
	dirs := append([]string(nil), basedirs...)
	if distribution == "HardenedBSD" {
		dirs = append(dirs, "usr/lib32")
	}
	return dirs
}

// DetectDistribution identifies the host distribution. HardenedBSD
// kernels carry a -HBSD suffix on their version string.
func DetectDistribution() string {
	info, err := host.Info()
	if err != nil {
		return "FreeBSD"
	}
	if strings.HasSuffix(info.KernelVersion, "-HBSD") {
		return "HardenedBSD"
	}
	// gopsutil reports the lowercased GOOS name
	switch info.OS {
	case "", "freebsd":
		return "FreeBSD"
	default:
		return info.OS
	}
}
