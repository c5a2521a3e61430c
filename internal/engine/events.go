package engine

// EventKind names a state transition in notifications. The engine knows a
// single notify callback; fan-out to listeners is the caller's concern.
type EventKind string

const (
	EventInventoryChanged  EventKind = "inventory_changed"
	EventLocationChecked   EventKind = "location_checked"
	EventLocationUnchecked EventKind = "location_unchecked"
	EventCheckedCleared    EventKind = "checked_cleared"
	EventSettingChanged    EventKind = "setting_changed"
	EventRuleSetLoaded     EventKind = "ruleset_loaded"
	EventStateApplied      EventKind = "state_applied"
	EventBatchCommitted    EventKind = "batch_committed"
)

// NotifyFunc receives an event kind after each meaningful state
// transition. A nil callback disables notifications.
type NotifyFunc func(kind EventKind)
