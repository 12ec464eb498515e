package script

import "log/slog"

// logPrint routes Lua's print() to the host's structured logger instead of
// stdout, since the sandbox has no io library.
func logPrint(args ...any) {
	slog.Debug("lua print", "args", args)
}
