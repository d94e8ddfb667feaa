package ecsruntime

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
)

// strictMode mirrors HELIOS_ENABLE_ASSERTS: when true, a failed Assert panics;
// when false it is logged and execution continues. Tests run strict by
// default; SetStrictMode(false) is meant for release-style embedding.
var strictMode = true

// SetStrictMode toggles whether Assert panics (strict, the default) or only
// logs (non-strict) on a failed condition. Invariant and Verify always at
// least log, regardless of this setting.
func SetStrictMode(strict bool) { strictMode = strict }

// StrictMode reports the current assertion mode.
func StrictMode() bool { return strictMode }

// Assert checks a debug-time condition. In strict mode a failure panics with
// the formatted message and call site; in non-strict mode it is logged and
// execution continues. Use for conditions that indicate a programming error
// in caller code, never for user-input validation.
func Assert(condition bool, format string, args ...any) {
	if condition {
		return
	}
	msg := fmt.Sprintf(format, args...)
	_, file, line, _ := runtime.Caller(1)
	if strictMode {
		panic(fmt.Sprintf("assertion failed: %s [%s:%d]", msg, file, line))
	}
	log.Error().Str("file", file).Int("line", line).Msg("assertion failed: " + msg)
}

// Invariant checks a condition that must hold in both debug and release
// configurations. It always logs on failure; it only panics in strict mode,
// mirroring the source engine's HELIOS_INVARIANT (assert in debug, log and
// continue in release).
func Invariant(condition bool, format string, args ...any) {
	if condition {
		return
	}
	msg := fmt.Sprintf(format, args...)
	_, file, line, _ := runtime.Caller(1)
	log.Error().Str("file", file).Int("line", line).Msg("invariant violated: " + msg)
	if strictMode {
		panic(fmt.Sprintf("invariant violated: %s [%s:%d]", msg, file, line))
	}
}

// Verify checks a condition unconditionally in every build configuration and
// returns whether it held, logging on failure regardless of strict mode.
// Intended for validating external input or conditions the caller must
// handle rather than crash on.
func Verify(condition bool, format string, args ...any) bool {
	if condition {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	_, file, line, _ := runtime.Caller(1)
	log.Warn().Str("file", file).Int("line", line).Msg("verify failed: " + msg)
	return false
}
