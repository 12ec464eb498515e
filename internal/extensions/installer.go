package extensions

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vswrite/agent-core/pkg/models"
)

// Installer copies bundled extension directories into a per-user
// extensions directory, skipping an extension whose installed copy
// already matches the bundled version. Grounded on the desktop product's
// install_bundled_lua_extensions / copy_dir_recursive.
type Installer struct {
	// BundledRoot holds the read-only bundled extension directories
	// shipped alongside the binary.
	BundledRoot string
	// TargetDir is the per-user directory extensions are installed into.
	TargetDir string
}

// InstallBundled installs every bundled extension whose manifest declares
// at least one Lua tool or a hooks.lua, skipping ones already installed at
// the same version. Returns the ids that were (re-)installed.
func (i Installer) InstallBundled() ([]string, error) {
	entries, err := os.ReadDir(i.BundledRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bundled extensions root: %w", err)
	}
	if err := os.MkdirAll(i.TargetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extensions directory: %w", err)
	}

	var installed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		srcDir := filepath.Join(i.BundledRoot, entry.Name())
		manifestPath := filepath.Join(srcDir, manifestFilename)
		raw, err := os.ReadFile(manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return installed, fmt.Errorf("read bundled manifest %s: %w", manifestPath, err)
		}
		var manifest models.ExtensionManifest
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return installed, fmt.Errorf("parse bundled manifest %s: %w", manifestPath, err)
		}

		hasLuaTools := false
		for _, t := range manifest.Tools {
			if t.LuaScript != "" {
				hasLuaTools = true
				break
			}
		}
		_, hooksErr := os.Stat(filepath.Join(srcDir, hooksFilename))
		hasHooks := hooksErr == nil
		if !hasLuaTools && !hasHooks {
			continue
		}

		if err := models.ValidateExtensionID(manifest.ID); err != nil {
			return installed, fmt.Errorf("bundled extension %s: %w", entry.Name(), err)
		}

		destDir := filepath.Join(i.TargetDir, manifest.ID)
		shouldInstall, err := needsInstall(destDir, manifest.Version)
		if err != nil {
			return installed, err
		}
		if !shouldInstall {
			continue
		}

		if _, err := os.Lstat(destDir); err == nil {
			if err := os.RemoveAll(destDir); err != nil {
				return installed, fmt.Errorf("remove existing extension %s: %w", manifest.ID, err)
			}
		}
		if err := copyDirRecursive(srcDir, destDir); err != nil {
			return installed, fmt.Errorf("install extension %s: %w", manifest.ID, err)
		}
		installed = append(installed, manifest.ID)
	}
	return installed, nil
}

// needsInstall reports whether destDir is missing or holds a manifest with
// a different version than bundledVersion. Any other read failure is
// treated as "needs install" so a corrupt copy gets replaced.
func needsInstall(destDir, bundledVersion string) (bool, error) {
	raw, err := os.ReadFile(filepath.Join(destDir, manifestFilename))
	if err != nil {
		return true, nil
	}
	var existing models.ExtensionManifest
	if err := json.Unmarshal(raw, &existing); err != nil {
		return true, nil
	}
	return existing.Version != bundledVersion, nil
}

// copyDirRecursive copies regular files and subdirectories from src to
// dst, skipping symlinks so a bundled extension cannot plant one pointing
// outside the install target.
func copyDirRecursive(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := os.Lstat(srcPath)
		if err != nil {
			return err
		}
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			continue
		case info.IsDir():
			if err := copyDirRecursive(srcPath, dstPath); err != nil {
				return err
			}
		default:
			if err := copyFile(srcPath, dstPath, info.Mode()); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string, mode fs.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}
