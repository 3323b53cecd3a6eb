package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentUnpaid.CanBecome(PaymentPaid))
	assert.True(t, PaymentUnpaid.CanBecome(PaymentUnpaid))
	assert.True(t, PaymentPaid.CanBecome(PaymentPaid))
	assert.False(t, PaymentPaid.CanBecome(PaymentUnpaid))

	assert.True(t, PaymentPaid.Valid())
	assert.False(t, PaymentStatus("lunas").Valid())
	assert.False(t, PaymentStatus("").Valid())
}

func TestOrderAndRestockLifecycles(t *testing.T) {
	assert.True(t, OrderCommitted.CanBecome(OrderRevised))
	assert.True(t, OrderRevised.CanBecome(OrderRevised))
	assert.True(t, OrderRevised.CanBecome(OrderVoided))
	assert.False(t, OrderVoided.CanBecome(OrderRevised))
	assert.False(t, OrderVoided.CanBecome(OrderVoided))

	assert.True(t, RestockCommitted.CanBecome(RestockCorrected))
	assert.True(t, RestockCorrected.CanBecome(RestockReversed))
	assert.False(t, RestockReversed.CanBecome(RestockCorrected))
}
