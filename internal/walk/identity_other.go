//go:build !unix

package tread

import "os"

// fileIdent returns the size and link-ness of the file at path from a
// single lstat. This platform offers no stable device/inode pair, so
// the identity is always zero and hardlink deduplication is disabled
// (see identSupported).
func fileIdent(path string) (FileIdentity, int64, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileIdentity{}, 0, false, err
	}
	return FileIdentity{}, info.Size(), info.Mode()&os.ModeSymlink != 0, nil
}

func identSupported() bool { return false }
