//go:build linux

package sysinfo

import (
	"fmt"
	"os"
)

// readRootPath resolves the root directory the process sees, which differs
// from "/" inside containers and chroots. Unreadable links return "".
func readRootPath(pid int32) string {
	root, err := os.Readlink(fmt.Sprintf("/proc/%d/root", pid))
	if err != nil {
		return ""
	}
	return root
}
