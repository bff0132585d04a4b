package conf

const (
	APP_NAME = "gloriamundo"
	APP_DESC = "Model-fallback streaming chat relay for OpenRouter"
	Author   = "gloriamundo"
	Repo     = "https://github.com/gloriamundo/gloriamundo"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)
