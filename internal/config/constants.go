package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 5000
	defaultEnv        = "development"

	defaultStoreDriver  = StoreMongo
	defaultMongoURI     = "mongodb://127.0.0.1:27017"
	defaultMongoDB      = "landing"
	defaultMongoColl    = "subscribers"
	defaultMongoTimeout = 5 * time.Second

	defaultMailPort = 587
	defaultSiteName = "Coming Soon"

	defaultLaunchMode   = LaunchPerSignup
	defaultLaunchDelay  = 5 * time.Second
	defaultFixedDelay   = 20 * time.Second
	defaultLaunchWindow = time.Minute

	defaultShutdownWait = 10 * time.Second
)

// Store drivers.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Launch modes select when the "site is live" broadcast fires.
const (
	LaunchFixed     = "fixed"
	LaunchPerSignup = "per_signup"
)
