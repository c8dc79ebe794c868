package config

const (
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	ErrInitializingPages = "Error initializing wiki pages"
)
