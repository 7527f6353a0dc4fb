package journal

import (
	"os"
	"strconv"
)

// envJournalDisabledEvents is the environment variable through which disabled
// journal events can be customized.
const envDisabledEvents = "CAPMARKET_JOURNAL_DISABLED_EVENTS"

var (
	EnvMaxBackups = envIntParser("CAPMARKET_JOURNAL_MAX_BACKUPS", 3)
	EnvMaxSize    = envIntParser("CAPMARKET_JOURNAL_MAX_SIZE", 1<<30)
)

func EnvDisabledEvents() DisabledEvents {
	if env, ok := os.LookupEnv(envDisabledEvents); ok {
		ret, err := ParseDisabledEvents(env)
		if err == nil {
			return ret
		}
		log.Warnw("ignoring malformed disabled journal events", "env", envDisabledEvents, "error", err)
	}
	// fallback if env variable is not set, or if it failed to parse.
	return DefaultDisabledEvents
}

func envIntParser(env string, withDefault int64) int64 {
	e, ok := os.LookupEnv(env)
	if !ok {
		return withDefault
	}
	i, err := strconv.Atoi(e)
	if err != nil {
		return withDefault
	}
	return int64(i)
}
