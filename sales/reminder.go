/*
reminder.go - Time-based reminder urgency classification

PURPOSE:
  Maps (order, now) to a reminder urgency bucket. Pure: reads the order
  and the wall clock, mutates nothing. "What needs attention" is fully
  decoupled from "has been acted on" - acknowledging a reminder is a
  separate, explicit operation (OrderService.MarkReminded).

WINDOWS:
  Paid orders (amount > 0):  7 civil days before expiry -> upcoming_due
  Free orders (amount == 0): 3 civil days before expiry -> upcoming_due
  Both:                     30 civil days after expiry  -> overdue

  Only confirmed_config and active orders are eligible. Orders already
  acknowledged, and orders outside both windows, classify as none.

  Day distances are civil-day differences in the injected timezone,
  never raw 24-hour buckets.
*/
package sales

import "time"

// ReminderKind is the urgency bucket for an order.
type ReminderKind string

const (
	ReminderNone     ReminderKind = "none"
	ReminderUpcoming ReminderKind = "upcoming_due"
	ReminderOverdue  ReminderKind = "overdue"
)

// Reminder pairs an urgency bucket with its day distance: days left
// until expiry for upcoming_due, days past expiry for overdue, zero
// for none.
type Reminder struct {
	Kind ReminderKind
	Days int
}

// Reminder windows in civil days.
const (
	paidUpcomingWindowDays = 7
	freeUpcomingWindowDays = 3
	overdueWindowDays      = 30
)

// Classify maps an order and the current time to a reminder bucket.
// The location fixes the civil-day boundary; it is never defaulted here.
func Classify(o *Order, now time.Time, loc *time.Location) Reminder {
	if o.Status != StatusConfirmedConfig && o.Status != StatusActive {
		return Reminder{Kind: ReminderNone}
	}
	if o.IsReminded || o.ExpiryTime.IsZero() {
		return Reminder{Kind: ReminderNone}
	}

	daysToExpiry := civilDaysBetween(now, o.ExpiryTime, loc)

	upcomingWindow := paidUpcomingWindowDays
	if o.IsFree() {
		upcomingWindow = freeUpcomingWindowDays
	}

	switch {
	case daysToExpiry >= 0 && daysToExpiry <= upcomingWindow:
		return Reminder{Kind: ReminderUpcoming, Days: daysToExpiry}
	case daysToExpiry < 0 && -daysToExpiry <= overdueWindowDays:
		return Reminder{Kind: ReminderOverdue, Days: -daysToExpiry}
	default:
		return Reminder{Kind: ReminderNone}
	}
}

// civilDaysBetween returns the number of civil-day boundaries between
// from and to in loc. Positive when to is on a later day than from.
func civilDaysBetween(from, to time.Time, loc *time.Location) int {
	f := startOfDay(from, loc)
	t := startOfDay(to, loc)
	return int(t.Sub(f).Hours() / 24)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
