package telemetry

// Span names used for instrumentation.
const (
	SpanSnapshotBuild  = "engine.snapshot_build"
	SpanViewportQuery  = "engine.viewport_query"
	SpanRecompute      = "engine.recompute"
	SpanRecordsLoad    = "records.load"
	SpanRecordsIngest  = "records.ingest"
	instrumentationLib = "github.com/samirrijal/ipmap"
)
