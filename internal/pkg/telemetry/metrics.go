package telemetry

// Span and attribute names used for instrumentation.
const (
	TracerName = "github.com/samirrijal/geocover"

	// Spans
	SpanCoverage = "coverage.full"
	SpanLeftover = "coverage.leftover"

	// Attributes
	AttrCandidates   = "coverage.candidates"
	AttrSubjectID    = "coverage.subject_id"
	AttrPercentage   = "coverage.percentage"
	AttrNonFinite    = "coverage.non_finite"
	AttrTransport    = "coverage.transport"
	AttrPolygonsLeft = "coverage.leftover_polygons"
)
