package usaspending

import (
	"awardwatch-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/usaspending")

func instrumentClient(client *resty.Client) {
	telemetry.InstrumentResty(client, "scrapers/usaspending/http")
}
