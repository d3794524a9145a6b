package internaldefs

import (
	"github.com/MrEthical07/authguard"
)

// GuardLabel carries the guard instance ID on every exported series, so
// several guards can share one registry or meter.
const GuardLabel = "guard_id"

// Series is one sample of a family. Value is the family label value and is
// empty for single-series families.
type Series struct {
	ID    authguard.MetricID
	Value string
}

// CounterFamily groups guard counters under one exposition name.
type CounterFamily struct {
	Name   string
	Help   string
	Label  string
	Series []Series
}

// HistogramDef binds a histogram to its exposition name.
type HistogramDef struct {
	ID   authguard.MetricID
	Name string
	Help string
}

// CounterFamilies lists the exported counters in exposition order.
var CounterFamilies = []CounterFamily{
	{
		Name:  "authguard_checks_total",
		Help:  "Session checks by result.",
		Label: "result",
		Series: []Series{
			{ID: authguard.MetricCheckAuthSuccess, Value: "success"},
			{ID: authguard.MetricCheckAuthFailure, Value: "failure"},
		},
	},
	{
		Name:  "authguard_check_failures_total",
		Help:  "Checks that failed closed, by cause.",
		Label: "cause",
		Series: []Series{
			{ID: authguard.MetricAbsentCredential, Value: "absent"},
			{ID: authguard.MetricCorruptProfile, Value: "corrupt_profile"},
			{ID: authguard.MetricTokenRejected, Value: "token"},
			{ID: authguard.MetricStorageUnavailable, Value: "storage_unavailable"},
		},
	},
	{
		Name:   "authguard_focus_checks_total",
		Help:   "Focus re-validations of a stored token.",
		Series: []Series{{ID: authguard.MetricFocusCheck}},
	},
	{
		Name:   "authguard_activity_resets_total",
		Help:   "Inactivity countdown restarts caused by input.",
		Series: []Series{{ID: authguard.MetricActivityReset}},
	},
	{
		Name:  "authguard_sessions_expired_total",
		Help:  "Authenticated sessions ended without a user request, by cause.",
		Label: "cause",
		Series: []Series{
			{ID: authguard.MetricInactivityTimeout, Value: "inactivity"},
			{ID: authguard.MetricFocusExpired, Value: "focus"},
			{ID: authguard.MetricCrossTabLogout, Value: "cross_tab"},
		},
	},
	{
		Name:   "authguard_logout_prompts_total",
		Help:   "Logout confirmations shown.",
		Series: []Series{{ID: authguard.MetricLogoutRequested}},
	},
	{
		Name:   "authguard_logout_prompts_declined_total",
		Help:   "Logout confirmations declined.",
		Series: []Series{{ID: authguard.MetricLogoutDeclined}},
	},
	{
		Name:   "authguard_redirects_total",
		Help:   "Store teardowns followed by a redirect to the login page.",
		Series: []Series{{ID: authguard.MetricLogout}},
	},
	{
		Name:  "authguard_teardown_errors_total",
		Help:  "Teardowns that completed with an error, by stage.",
		Label: "stage",
		Series: []Series{
			{ID: authguard.MetricClearFailure, Value: "clear"},
			{ID: authguard.MetricAuditFlushTimeout, Value: "audit_flush"},
		},
	},
}

// HistogramDefs lists the exported histograms.
var HistogramDefs = []HistogramDef{
	{ID: authguard.MetricCheckLatency, Name: "authguard_check_latency_seconds", Help: "CheckAuth latency histogram."},
}

// Status series are read from authguard.Status rather than the counters.
const (
	StateGaugeName = "authguard_session_state"
	StateGaugeHelp = "1 for the state the guard is in, 0 otherwise."
	StateLabel     = "state"

	TerminatedGaugeName = "authguard_guard_terminated"
	TerminatedGaugeHelp = "1 once the guard redirected and stopped handling events."

	AuditEventsName  = "authguard_audit_events_total"
	AuditEventsHelp  = "Audit events by outcome."
	AuditEventsLabel = "outcome"
)

// States lists the values of the state gauge in exposition order.
var States = []authguard.State{authguard.StateAuthenticated, authguard.StateUnauthenticated}

// StateValue is the gauge sample for want given the guard's current state.
func StateValue(current, want authguard.State) int64 {
	if current == want {
		return 1
	}
	return 0
}

// BoolValue renders a flag as a gauge sample.
func BoolValue(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// HistogramBounds are the upper bounds of the eight latency buckets, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBounds as instrument name suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
