package orchestrator

// EventKind names what changed. Kinds are stable strings so they can go
// straight into logs.
type EventKind string

const (
	// EventFestivalActivated fires once per successful ActivateFestival,
	// after any fetch or load failure events from the same activation.
	EventFestivalActivated EventKind = "festival_activated"
	// EventCatalogRefreshed fires when a refresh replaced the drink
	// snapshot.
	EventCatalogRefreshed EventKind = "catalog_refreshed"
	// EventCriteriaChanged fires when the filter criteria changed.
	EventCriteriaChanged EventKind = "criteria_changed"
	// EventSortChanged fires when the sort key changed.
	EventSortChanged EventKind = "sort_changed"
	// EventLogChanged fires when a tasting-log mutation changed an
	// entry. DrinkID names the entry.
	EventLogChanged EventKind = "log_changed"
	// EventFetchFailed fires when a catalog fetch failed. The previous
	// snapshot stays visible.
	EventFetchFailed EventKind = "fetch_failed"
	// EventLoadFailed fires when loading a festival's tasting log
	// failed; the session continues with an empty log.
	EventLoadFailed EventKind = "load_failed"
	// EventSaveFailed fires when persisting the tasting log failed.
	// In-memory state keeps the optimistic value; there is no retry.
	EventSaveFailed EventKind = "save_failed"
)

// Event describes one state change. FestivalID is always set once a
// festival is active; DrinkID only for EventLogChanged; Err only for
// the *Failed kinds.
type Event struct {
	Kind       EventKind
	FestivalID string
	DrinkID    string
	Err        error
}
