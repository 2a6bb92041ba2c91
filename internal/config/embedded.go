package config

// Build-time values injected via ldflags. Load does not read them: the
// catalogue key and every other setting come from the config file, .env,
// or environment.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/reconciled/reconciled/internal/config.Version=1.2.3' \
//	                   -X 'github.com/reconciled/reconciled/internal/config.EmbeddedTMDBKey=xxx' \
//	                   -X 'github.com/reconciled/reconciled/internal/config.EmbeddedTVDBKey=yyy' \
//	                   -X 'github.com/reconciled/reconciled/internal/config.EmbeddedOMDBKey=zzz'"
var (
	// Version is the application version, injected at build time.
	// Defaults to "dev" if not set.
	Version = "dev"

	EmbeddedTMDBKey string
	EmbeddedTVDBKey string
	EmbeddedOMDBKey string
)
