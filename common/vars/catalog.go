package vars

import (
	"cleanny-dispatch/model"
	"sync/atomic"
)

// services holds the last catalog snapshot loaded from the services table.
// Readers never block; the catalog cron swaps the whole slice.
var services atomic.Pointer[[]model.Service]

// GetServices returns the current catalog snapshot, nil before the first load.
func GetServices() []model.Service {
	ptr := services.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// SetServices replaces the snapshot with a copy of list. Nil or empty clears it.
func SetServices(list []model.Service) {
	if len(list) == 0 {
		services.Store(nil)
		return
	}

	cp := make([]model.Service, len(list))
	copy(cp, list)
	services.Store(&cp)
}
