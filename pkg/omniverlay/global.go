package omniverlay

import (
	"sync"

	"github.com/platinummonkey/omniverlay/pkg/config"
)

var (
	globalOnce     sync.Once
	globalInstance *Omniverlay
	globalErr      error
)

// Global returns the process-wide instance, creating it from LoadConfig on
// first use. It is meant for the outermost layer of a binary only; library
// code takes an *Omniverlay explicitly.
func Global() (*Omniverlay, error) {
	globalOnce.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			globalErr = err
			return
		}
		globalInstance, globalErr = New(cfg)
	})
	return globalInstance, globalErr
}
