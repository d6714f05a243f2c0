package payment

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	engineMeter               = otel.Meter("fintrack/engine")
	obligationsGenerated, _   = engineMeter.Int64Counter("engine.obligations.generated", metric.WithDescription("Obligations inserted by schedule generation"))
	paymentsRecorded, _       = engineMeter.Int64Counter("engine.payments.recorded", metric.WithDescription("Payment transactions recorded by mode"))
	paymentsPartialFailure, _ = engineMeter.Int64Counter("engine.payments.partial_failure", metric.WithDescription("Transaction writes whose obligation update failed"))
	reversals, _              = engineMeter.Int64Counter("engine.reversals", metric.WithDescription("Obligations recomputed after a linked transaction was deleted"))
	resolutions, _            = engineMeter.Int64Counter("engine.resolutions", metric.WithDescription("Status resolutions by evidence"))
	reconcileRepairs, _       = engineMeter.Int64Counter("engine.reconcile.repairs", metric.WithDescription("Obligation rows rewritten to match their linked transactions"))
)
