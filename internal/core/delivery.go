package core

import "time"

// EstimateDelivery maps an order quantity to a supplier delivery date.
// Lead time tiers (inclusive upper bounds):
//
//	<=10 units    same day
//	11-100        +1 day
//	101-1000      +4 days
//	>1000         +7 days
//
// The estimator is pure and fully typed. Date parsing happens at the request
// edge via ParseDate, which errors on bad input rather than silently
// substituting the current time.
func EstimateDelivery(orderDate time.Time, quantity int64) time.Time {
	var days int
	switch {
	case quantity <= 10:
		days = 0
	case quantity <= 100:
		days = 1
	case quantity <= 1000:
		days = 4
	default:
		days = 7
	}
	return DateOnly(orderDate).AddDate(0, 0, days)
}
