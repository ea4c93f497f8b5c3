package lora

import (
	"os"
	"path/filepath"
	"strconv"

	"inferd/internal/common/fsutil"
)

// AdapterPath returns the managed filesystem path for an adapter's weights.
func (m *Manager) AdapterPath(adapterID int64) string {
	return filepath.Join(m.basePath, "adapter_"+strconv.FormatInt(adapterID, 10))
}

// SaveAdapter copies trained adapter weights into the managed location,
// replacing any previous copy, and returns the managed path. A missing source
// leaves the managed tree untouched.
func (m *Manager) SaveAdapter(adapterID int64, srcPath string) (string, error) {
	if err := fsutil.EnsureDir(m.basePath); err != nil {
		return "", err
	}
	target := m.AdapterPath(adapterID)
	if !fsutil.PathExists(srcPath) {
		return target, nil
	}
	if fsutil.PathExists(target) {
		if err := os.RemoveAll(target); err != nil {
			return "", err
		}
	}
	if err := fsutil.CopyTree(srcPath, target); err != nil {
		return "", err
	}
	return target, nil
}
