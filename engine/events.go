package engine

// EventType represents the type of event in the engine
type EventType string

// Event type constants. The editor-facing ones arrive as contextwin_event
// RPC notifications; throttle_timeout is internal.
const (
	EventCursorMoved     EventType = "cursor_moved"
	EventWinScrolled     EventType = "win_scrolled"
	EventWinEnter        EventType = "win_enter"
	EventWinResized      EventType = "win_resized"
	EventBufEnter        EventType = "buf_enter"
	EventInsertLeave     EventType = "insert_leave"
	EventSessionRestore  EventType = "session_restore"
	EventEnable          EventType = "enable"
	EventDisable         EventType = "disable"
	EventThrottleTimeout EventType = "throttle_timeout"
)

// Event represents an event in the engine
type Event struct {
	Type EventType
	Data any
}

var eventTypeMap map[string]EventType

func init() {
	eventTypeMap = buildEventTypeMap()
}

func buildEventTypeMap() map[string]EventType {
	eventMap := make(map[string]EventType)

	allEventTypes := []EventType{
		EventCursorMoved,
		EventWinScrolled,
		EventWinEnter,
		EventWinResized,
		EventBufEnter,
		EventInsertLeave,
		EventSessionRestore,
		EventEnable,
		EventDisable,
		EventThrottleTimeout,
	}

	for _, eventType := range allEventTypes {
		eventMap[string(eventType)] = eventType
	}

	return eventMap
}

// EventTypeFromString converts a string to EventType
func EventTypeFromString(s string) EventType {
	if eventType, exists := eventTypeMap[s]; exists {
		return eventType
	}
	return ""
}
