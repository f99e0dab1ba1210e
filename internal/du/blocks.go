package du

import (
	"strings"

	"golang.org/x/sys/unix"
)

// BlockSize is the unit the filesystem reports allocation in.
const BlockSize = 512

// lstatBlocks returns the 512-byte block count for path and whether it is a
// directory, without following symlinks: a link contributes its own blocks,
// never its target's.
func lstatBlocks(path string) (blocks int64, isDir bool, err error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, false, err
	}
	return int64(st.Blocks), st.Mode&unix.S_IFMT == unix.S_IFDIR, nil
}

// childPath joins dir and name, inserting a separator only when dir does not
// already end in one. Paths are kept verbatim — no cleaning — so diagnostics
// echo the shape the user supplied.
func childPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
