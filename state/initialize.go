package state

import "time"

// newLocalEnv creates a new LocalEnv instance, everything else is set up
// once command line is parsed and configuration is loaded.
func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}
