package model

// WorkOrderType distinguishes reactive repairs from scheduled maintenance.
type WorkOrderType string

const (
	WorkOrderCM WorkOrderType = "CM"
	WorkOrderPM WorkOrderType = "PM"
)

// WorkOrderStatus is the lifecycle state of a work order. Any status may be set
// from any other.
type WorkOrderStatus string

const (
	StatusOpen       WorkOrderStatus = "Open"
	StatusInProgress WorkOrderStatus = "In Progress"
	StatusOnHold     WorkOrderStatus = "On Hold"
	StatusClosed     WorkOrderStatus = "Closed"
	StatusCancelled  WorkOrderStatus = "Cancelled"
)

// Priority applies to work orders.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// TxnType is the direction of a stock ledger entry.
type TxnType string

const (
	TxnIn  TxnType = "IN"
	TxnOut TxnType = "OUT"
)

// ActivityType classifies an activity report.
type ActivityType string

const (
	ActivityBreakdown ActivityType = "Breakdown"
	ActivityShutdown  ActivityType = "Shutdown"
	ActivityRoutine   ActivityType = "Routine"
)

var (
	WorkOrderTypes    = []WorkOrderType{WorkOrderCM, WorkOrderPM}
	WorkOrderStatuses = []WorkOrderStatus{StatusOpen, StatusInProgress, StatusOnHold, StatusClosed, StatusCancelled}
	Priorities        = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	TxnTypes          = []TxnType{TxnIn, TxnOut}
	ActivityTypes     = []ActivityType{ActivityBreakdown, ActivityShutdown, ActivityRoutine}
)

func (t WorkOrderType) Valid() bool   { return contains(WorkOrderTypes, t) }
func (s WorkOrderStatus) Valid() bool { return contains(WorkOrderStatuses, s) }
func (p Priority) Valid() bool        { return contains(Priorities, p) }
func (t TxnType) Valid() bool         { return contains(TxnTypes, t) }
func (t ActivityType) Valid() bool    { return contains(ActivityTypes, t) }

// IsOpen reports whether a work order in this status still counts as open work.
func (s WorkOrderStatus) IsOpen() bool {
	return s != StatusClosed && s != StatusCancelled
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
