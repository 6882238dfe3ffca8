//go:build unix

package tread

import "golang.org/x/sys/unix"

// fileIdent returns the identity, size, and link-ness of the file at
// path from a single lstat. The symlink answer comes from the same
// snapshot as the identity, so an entry that changed type after
// enumeration cannot slip past the link policy.
func fileIdent(path string) (FileIdentity, int64, bool, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return FileIdentity{}, 0, false, err
	}
	ident := FileIdentity{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}
	return ident, st.Size, st.Mode&unix.S_IFMT == unix.S_IFLNK, nil
}

// identSupported reports whether this platform provides stable
// device/inode identities for hardlink deduplication.
func identSupported() bool { return true }
