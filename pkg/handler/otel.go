package handler

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter  = otel.Meter("worldtap/handler")
	tracer = otel.Tracer("worldtap/handler")
)

var packetCounter, _ = meter.Int64Counter(
	"handler.packets",
	metric.WithDescription("Packets handled by an operator, by result"),
	metric.WithUnit("{packet}"),
)
