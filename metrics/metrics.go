package metrics

import (
	"time"

	"github.com/ipfs-force-community/metrics"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Global Tags
var (
	AccountKey, _ = tag.NewKey("account")
	NetworkKey, _ = tag.NewKey("network")
	OutcomeKey, _ = tag.NewKey("outcome")
)

// Distribution
var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 3000, 4000, 5000, 7500, 10000, 20000, 50000, 100000)

var (
	// connection lifecycle
	ConnectAttempt  = stats.Int64("wallet/connect_attempt", "Wallet connect attempts", stats.UnitDimensionless)
	ConnectOK       = stats.Int64("wallet/connect_ok", "Successful wallet connections", stats.UnitDimensionless)
	ConnectRejected = stats.Int64("wallet/connect_rejected", "Connections declined by the user", stats.UnitDimensionless)
	NetworkMismatch = stats.Int64("wallet/network_mismatch", "Connections landing on an unsupported chain", stats.UnitDimensionless)
	Disconnect      = stats.Int64("wallet/disconnect", "Wallet disconnections", stats.UnitDimensionless)
	SilentResume    = stats.Int64("wallet/silent_resume", "Silent reconnection attempts on startup", stats.UnitDimensionless)

	ConnectDuration = stats.Float64("wallet/connect_ms", "Wallet connect round-trip duration", stats.UnitMilliseconds)

	// gauges
	WalletState = metrics.NewInt64("wallet/state", "Connection state. 0 disconnected, 1 connecting, 2 connected, 3 mismatch, 4 error", "")
	UIClients   = metrics.NewInt64("ui/clients", "Attached websocket ui clients", "")

	ApiState = metrics.NewInt64("api/state", "api service state. 0: down, 1: up", "")
)

var (
	connectAttemptView = &view.View{
		Measure:     ConnectAttempt,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{NetworkKey},
	}
	connectOKView = &view.View{
		Measure:     ConnectOK,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{AccountKey, NetworkKey},
	}
	connectRejectedView = &view.View{
		Measure:     ConnectRejected,
		Aggregation: view.Count(),
	}
	networkMismatchView = &view.View{
		Measure:     NetworkMismatch,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{NetworkKey},
	}
	disconnectView = &view.View{
		Measure:     Disconnect,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{AccountKey},
	}
	silentResumeView = &view.View{
		Measure:     SilentResume,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{OutcomeKey},
	}
	connectDurationView = &view.View{
		Measure:     ConnectDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{OutcomeKey},
	}
)

var views = []*view.View{
	connectAttemptView,
	connectOKView,
	connectRejectedView,
	networkMismatchView,
	disconnectView,
	silentResumeView,
	connectDurationView,
}

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

func init() {
	// register metrics
	_ = view.Register(views...)
}
