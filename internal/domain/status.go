package domain

import "slices"

type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "Lunas"
	PaymentUnpaid PaymentStatus = "Belum Lunas"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentUnpaid: {PaymentUnpaid, PaymentPaid},
	PaymentPaid:   {PaymentPaid},
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanBecome reports whether an order in status s may move to next.
// Un-paying a paid order is not supported.
func (s PaymentStatus) CanBecome(next PaymentStatus) bool {
	return slices.Contains(paymentTransitions[s], next)
}

type OrderStatus string

const (
	OrderCommitted OrderStatus = "committed"
	OrderRevised   OrderStatus = "revised"
	OrderVoided    OrderStatus = "voided"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderCommitted: {OrderRevised, OrderVoided},
	OrderRevised:   {OrderRevised, OrderVoided},
}

func (s OrderStatus) CanBecome(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

type RestockStatus string

const (
	RestockCommitted RestockStatus = "committed"
	RestockCorrected RestockStatus = "corrected"
	RestockReversed  RestockStatus = "reversed"
)

var restockTransitions = map[RestockStatus][]RestockStatus{
	RestockCommitted: {RestockCorrected, RestockReversed},
	RestockCorrected: {RestockCorrected, RestockReversed},
}

func (s RestockStatus) CanBecome(next RestockStatus) bool {
	return slices.Contains(restockTransitions[s], next)
}
