// Package trigger turns outside events into sync signals.
package trigger

import "github.com/bnema/nightscout-tidepool-sync/internal/application"

// Notifier receives signals. *application.SyncService satisfies it.
type Notifier interface {
	Notify(signal application.Signal)
}

type NotifierFunc func(signal application.Signal)

func (f NotifierFunc) Notify(signal application.Signal) {
	f(signal)
}
