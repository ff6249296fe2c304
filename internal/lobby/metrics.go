package lobby

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/race/horizon/internal/lobby"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	ticks    metric.Int64Counter
	laps     metric.Int64Counter
	finishes metric.Int64Counter
	rooms    metric.Int64UpDownCounter
}

var sharedMetrics = sync.OnceValues(newMetrics)

func newMetrics() (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)

	out.ticks, err = m.Int64Counter("horizon.room.ticks",
		metric.WithDescription("Simulation ticks advanced across all rooms"))
	if err != nil {
		return nil, errors.Wrap(err, "create ticks counter")
	}
	out.laps, err = m.Int64Counter("horizon.room.laps",
		metric.WithDescription("Laps completed, by controller"))
	if err != nil {
		return nil, errors.Wrap(err, "create laps counter")
	}
	out.finishes, err = m.Int64Counter("horizon.room.finishes",
		metric.WithDescription("Races finished, by track"))
	if err != nil {
		return nil, errors.Wrap(err, "create finishes counter")
	}
	out.rooms, err = m.Int64UpDownCounter("horizon.lobby.rooms",
		metric.WithDescription("Rooms currently open"))
	if err != nil {
		return nil, errors.Wrap(err, "create rooms gauge")
	}
	return &out, nil
}

func (m *metrics) tick(ctx context.Context) {
	if m == nil {
		return
	}
	m.ticks.Add(ctx, 1)
}

func (m *metrics) lap(ctx context.Context, controller string) {
	if m == nil {
		return
	}
	m.laps.Add(ctx, 1, metric.WithAttributes(attribute.String("controller", controller)))
}

func (m *metrics) finish(ctx context.Context, track string) {
	if m == nil {
		return
	}
	m.finishes.Add(ctx, 1, metric.WithAttributes(attribute.String("track", track)))
}

func (m *metrics) roomDelta(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.rooms.Add(ctx, n)
}
