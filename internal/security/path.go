package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sensitiveNames are exact (case-insensitive) file-name matches that are
// always denied, regardless of extension.
var sensitiveNames = []string{
	".env",
	".npmrc",
	".git-credentials",
	".gitcredentials",
}

// sensitiveNamePrefixes are case-insensitive file-name prefixes that are
// always denied (e.g. ".env.local", "credentials.json").
var sensitiveNamePrefixes = []string{
	".env.",
	"credentials",
	"keychain",
}

// sensitiveSSHKeyNames are common SSH private/public key file names.
var sensitiveSSHKeyNames = []string{
	"id_rsa", "id_rsa.pub",
	"id_ed25519", "id_ed25519.pub",
	"id_ecdsa", "id_ecdsa.pub",
	"id_dsa", "id_dsa.pub",
}

// sensitiveExtensions are file extensions that are always denied.
var sensitiveExtensions = []string{
	".pem", ".key", ".p12", ".pfx", ".keystore", ".jks",
}

// sensitivePathSegments are path components that, if present anywhere in
// the requested path, cause denial (credential stores keyed by directory).
var sensitivePathSegments = []string{
	".ssh", ".gnupg", ".password-store",
}

// cloudCredentialFiles are well-known cloud-provider credential file names.
var cloudCredentialFiles = []string{
	"credentials", // ~/.aws/credentials — also caught by the prefix rule
	".boto",
	"application_default_credentials.json",
}

// ErrSymlinkNotAllowed and ErrAccessDenied are sentinel-ish error strings
// returned by SafePath, matching the spec's exact wording so callers and
// tests can match on message.
const (
	errSymlinksNotAllowed = "symlinks not allowed"
	errAccessDenied       = "access denied"
	errEscapesWorkspace   = "escapes workspace"
)

// SafePath resolves requested (which may be relative to workspace, or
// absolute) to a canonical path guaranteed to live inside workspace, with
// no symlink anywhere along the chain and no match against the sensitive
// file-pattern blocklist. It is TOCTOU-resistant: every existing path
// component is checked with a non-following stat (os.Lstat) so a symlink
// swapped in after validation cannot be used to escape the check.
func SafePath(workspace, requested string) (string, error) {
	workspaceAbs, err := filepath.Abs(workspace)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	workspaceCanon, err := canonicalize(workspaceAbs)
	if err != nil {
		return "", fmt.Errorf("workspace does not exist: %w", err)
	}

	req := strings.TrimSpace(requested)
	if req == "" || req == "." {
		return workspaceCanon, nil
	}

	var target string
	if filepath.IsAbs(req) {
		target = filepath.Clean(req)
	} else {
		target = filepath.Join(workspaceCanon, req)
	}

	if err := checkNoSymlinkInChain(workspaceCanon, target); err != nil {
		return "", err
	}

	if err := checkSensitive(target); err != nil {
		return "", err
	}

	finalCanon, err := canonicalizeBestEffort(target)
	if err != nil {
		return "", err
	}

	if finalCanon != workspaceCanon &&
		!strings.HasPrefix(finalCanon, workspaceCanon+string(filepath.Separator)) {
		return "", errors.New(errEscapesWorkspace)
	}

	return finalCanon, nil
}

// checkNoSymlinkInChain walks every path component from workspace down to
// target (inclusive) and fails if any existing component is a symlink.
// Components that don't exist yet are skipped (they can't be symlinks).
func checkNoSymlinkInChain(workspace, target string) error {
	rel, err := filepath.Rel(workspace, target)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	cur := workspace
	if info, err := os.Lstat(cur); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.New(errSymlinksNotAllowed)
	}

	if rel == "." {
		return nil
	}

	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat %s: %w", cur, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.New(errSymlinksNotAllowed)
		}
	}
	return nil
}

// checkSensitive rejects paths whose file name or path segments match the
// enumerated sensitive patterns.
func checkSensitive(target string) error {
	name := strings.ToLower(filepath.Base(target))
	lowerPath := strings.ToLower(target)

	for _, n := range sensitiveNames {
		if name == n {
			return errors.New(errAccessDenied)
		}
	}
	for _, n := range sensitiveSSHKeyNames {
		if name == n {
			return errors.New(errAccessDenied)
		}
	}
	for _, n := range cloudCredentialFiles {
		if name == n {
			return errors.New(errAccessDenied)
		}
	}
	for _, prefix := range sensitiveNamePrefixes {
		if strings.HasPrefix(name, prefix) {
			return errors.New(errAccessDenied)
		}
	}
	for _, ext := range sensitiveExtensions {
		if strings.HasSuffix(name, ext) {
			return errors.New(errAccessDenied)
		}
	}

	sep := string(filepath.Separator)
	for _, seg := range sensitivePathSegments {
		if strings.Contains(lowerPath, sep+seg+sep) || strings.HasSuffix(lowerPath, sep+seg) {
			return errors.New(errAccessDenied)
		}
	}
	return nil
}

// canonicalize resolves all symlinks and returns an absolute, cleaned path.
// The path must exist.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// canonicalizeBestEffort canonicalizes target if it exists; otherwise it
// canonicalizes the nearest existing ancestor and rejoins the remaining
// (non-existent) components, rejecting any ".." or absolute component
// discovered in that remainder.
func canonicalizeBestEffort(target string) (string, error) {
	if canon, err := canonicalize(target); err == nil {
		return canon, nil
	}

	var pending []string
	cur := filepath.Clean(target)
	for {
		parent := filepath.Dir(cur)
		pending = append([]string{filepath.Base(cur)}, pending...)
		if parent == cur {
			return "", fmt.Errorf("no existing ancestor found for %s", target)
		}
		if canon, err := canonicalize(parent); err == nil {
			result := canon
			for _, seg := range pending {
				if seg == ".." || seg == "." || filepath.IsAbs(seg) {
					return "", errors.New(errEscapesWorkspace)
				}
				result = filepath.Join(result, seg)
			}
			return result, nil
		}
		cur = parent
	}
}
