/*
Package config loads and validates the Configuration a filesystem instance is
built from.

Precedence, lowest to highest: compiled-in defaults (NewDefaultUnix /
NewDefaultWindows), a YAML file (LoadFromFile), then environment variables
(LoadFromEnv, prefix MEMVFS_). Callers apply these in order and call
Validate before handing the Configuration to pkg/vfs.New.

	cfg := config.NewDefaultUnix()
	if err := cfg.LoadFromFile("/etc/memvfs/config.yaml"); err != nil {
		log.Fatal(err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
*/
package config
