// Package lifecycle defines the order status machine: the fixed linear
// delivery pipeline plus cancellation. All state mutations go through the
// store; this package only answers which transitions are legal.
package lifecycle

// Order statuses.
const (
	StatusNew       = "NEW"
	StatusConfirmed = "CONFIRMED"
	StatusPreparing = "PREPARING"
	StatusPickedUp  = "PICKED_UP"
	StatusOnTheWay  = "ON_THE_WAY"
	StatusNearby    = "NEARBY"
	StatusArrived   = "ARRIVED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

// Sequence is the delivery pipeline in order. Couriers walk it one step at a
// time; there is no branching and no skipping.
var Sequence = []string{
	StatusNew,
	StatusConfirmed,
	StatusPreparing,
	StatusPickedUp,
	StatusOnTheWay,
	StatusNearby,
	StatusArrived,
	StatusDelivered,
}

// transitions maps each status to its successor. Terminal statuses have no
// entry, so illegal advances are unrepresentable rather than an index
// arithmetic accident.
var transitions = map[string]string{
	StatusNew:       StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusPickedUp,
	StatusPickedUp:  StatusOnTheWay,
	StatusOnTheWay:  StatusNearby,
	StatusNearby:    StatusArrived,
	StatusArrived:   StatusDelivered,
}

// labels are the customer-facing Arabic names used in history notes.
var labels = map[string]string{
	StatusNew:       "جديد",
	StatusConfirmed: "مقبول",
	StatusPreparing: "تجهيز",
	StatusPickedUp:  "استلام",
	StatusOnTheWay:  "في الطريق",
	StatusNearby:    "قريب جداً",
	StatusArrived:   "وصل",
	StatusDelivered: "تم التوصيل",
	StatusCancelled: "ملغي",
}

// Next returns the successor of status in the delivery pipeline. The second
// return is false when the status is terminal or unknown.
func Next(status string) (string, bool) {
	next, ok := transitions[status]
	return next, ok
}

// IsTerminal reports whether an order in this status can never move again.
func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

// CanCancel reports whether an order in this status may still be cancelled.
func CanCancel(status string) bool {
	return Valid(status) && !IsTerminal(status)
}

// Valid reports whether status is one of the known order statuses.
func Valid(status string) bool {
	if status == StatusCancelled {
		return true
	}
	_, known := labels[status]
	return known
}

// Label returns the display name for a status, falling back to the raw value.
func Label(status string) string {
	if l, ok := labels[status]; ok {
		return l
	}
	return status
}
