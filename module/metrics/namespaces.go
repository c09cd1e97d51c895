package metrics

// Prometheus metric namespaces
const (
	namespaceRollup = "rollup"
)

// Runner subsystems
const (
	subsystemRunner        = "runner"
	subsystemDA            = "da"
	subsystemStorehouse    = "storehouse"
	subsystemLedger        = "ledger"
	subsystemNotifications = "notifications"
	subsystemCache         = "cache"
)
