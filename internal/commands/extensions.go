package commands

import (
	"context"
	"fmt"

	"github.com/vswrite/agent-core/internal/extensions"
	"github.com/vswrite/agent-core/pkg/models"
)

// LoadExtension loads an extension bundle from dir into the shared
// registry, replacing any previously loaded bundle with the same id.
func (s *Surface) LoadExtension(dir string) (string, error) {
	if s.registry == nil {
		return "", fmt.Errorf("commands: no extension registry configured")
	}
	return s.registry.Load(dir)
}

// UnloadExtension removes a loaded extension's mappings. Not an error to
// unload an id that was never loaded.
func (s *Surface) UnloadExtension(id string) error {
	if s.registry == nil {
		return fmt.Errorf("commands: no extension registry configured")
	}
	s.registry.Unload(id)
	return nil
}

// ListExtensions returns the ids of every currently loaded extension.
func (s *Surface) ListExtensions() []string {
	if s.registry == nil {
		return nil
	}
	return s.registry.ListIDs()
}

// ListExtensionTools returns the namespaced tool schemas contributed by
// every loaded extension.
func (s *Surface) ListExtensionTools() []models.ToolSchema {
	if s.registry == nil {
		return nil
	}
	return s.registry.Schemas()
}

// RunExtensionHook invokes hook on every loaded extension that declares it,
// returning each extension's outcome.
func (s *Surface) RunExtensionHook(ctx context.Context, hook, argsJSON string) []extensions.HookOutcome {
	if s.registry == nil {
		return nil
	}
	return s.registry.ExecuteHookAll(ctx, hook, argsJSON)
}

// InstallBundledExtensions copies bundled read-only extension directories
// into the per-user extensions directory, skipping ones already installed
// at the same version.
func (s *Surface) InstallBundledExtensions() ([]string, error) {
	return s.installer.InstallBundled()
}
