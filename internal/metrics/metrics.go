package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "near_listener"

var (
	BlocksProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_processed_total",
		Help:      "Blocks fetched and scanned",
	})
	CursorHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cursor_height",
		Help:      "Height of the last processed block",
	})
	MatchedTransactions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matched_transactions_total",
		Help:      "Transactions that called the watched method",
	})
	EventsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_emitted_total",
		Help:      "Events delivered to the handler",
	}, []string{"standard", "event"})
	LogParseFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "log_parse_failures_total",
		Help:      "Log lines skipped because they are not valid events",
	}, []string{"reason"})
	BlockFetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "block_fetch_errors_total",
		Help:      "Failed block fetches by the action taken",
	}, []string{"verdict"})
)

func init() {
	prometheus.MustRegister(BlocksProcessed)
	prometheus.MustRegister(CursorHeight)
	prometheus.MustRegister(MatchedTransactions)
	prometheus.MustRegister(EventsEmitted)
	prometheus.MustRegister(LogParseFailures)
	prometheus.MustRegister(BlockFetchErrors)
}
