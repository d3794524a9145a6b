package authguard

import "github.com/MrEthical07/authguard/inactivity"

// EventKind names a host event. Input kinds use the DOM event type names.
type EventKind string

const (
	EventPageLoad    EventKind = "DOMContentLoaded"
	EventFocus       EventKind = "focus"
	EventKeyDown     EventKind = "keydown"
	EventClick       EventKind = "click"
	EventPointerDown EventKind = inactivity.PointerDown
	EventPointerMove EventKind = inactivity.PointerMove
	EventKeyPress    EventKind = inactivity.KeyPress
	EventScroll      EventKind = inactivity.Scroll
	EventTouchStart  EventKind = inactivity.TouchStart
)

// Event is a host event delivered to [Guard.Dispatch].
type Event struct {
	Kind EventKind
	// Key is the KeyboardEvent key for key events.
	Key string
	// Ctrl reports whether the control modifier was held.
	Ctrl bool
	// Target is the element id of a click.
	Target string
}

// Outcome reports what the guard did with an event.
type Outcome struct {
	// PreventDefault is set when the host must suppress the event's default
	// action (the logout control's navigation, the browser's Ctrl+L).
	PreventDefault bool
	// ActivityReset is set when the event restarted the inactivity countdown.
	ActivityReset bool
	// Redirected is set when the event ended the page.
	Redirected bool
}

// State is the derived session state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}
