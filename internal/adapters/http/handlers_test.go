package http_test

import (
	"encoding/json"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"

	"github.com/samirrijal/geocover/internal/adapters/clip"
	handler "github.com/samirrijal/geocover/internal/adapters/http"
	"github.com/samirrijal/geocover/internal/core/usecases"
)

// ---- Fixtures ----

// An 80x50 rectangle, a candidate crossing it with a triangular hole, and a
// second candidate filling exactly that hole.
const (
	subjectJSON   = `{"type":"Polygon","coordinates":[[[180,200],[260,200],[260,150],[180,150],[180,200]]]}`
	withHoleJSON  = `{"type":"Polygon","coordinates":[[[190,210],[240,210],[240,130],[190,130],[190,210]],[[215,160],[230,190],[200,190],[215,160]]]}`
	triangleJSON  = `{"type":"MultiPolygon","coordinates":[[[[215,160],[230,190],[200,190],[215,160]]]]}`
	emptyJSON     = `{"type":"MultiPolygon","coordinates":[]}`
	lineJSON      = `{"type":"LineString","coordinates":[[0,0],[1,1]]}`
	scenarioJSON  = `{"areaToBeCovered":{"_id":"zone","area":` + subjectJSON + `},"intersectingCandidates":[{"_id":"a","area":` + withHoleJSON + `},{"_id":"b","area":` + triangleJSON + `}]}`
	noCandidateJS = `{"areaToBeCovered":{"area":` + subjectJSON + `}}`
)

type coverageBody struct {
	Covered  *float64        `json:"covered%"`
	Leftover json.RawMessage `json:"leftover"`
	Area     json.RawMessage `json:"coveredArea"`
	Partials []struct {
		Covered *float64 `json:"covered%"`
	} `json:"partialCoverages"`
}

type apiError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Coverage: usecases.NewCoverageService(clip.New(clip.Planar), 2),
		Clock:    clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func post(t *testing.T, app *fiber.App, path, body string) *httptestResponse {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	return &httptestResponse{Status: resp.StatusCode, Header: resp.Header.Get, Body: readBody(t, resp.Body)}
}

type httptestResponse struct {
	Status int
	Header func(string) string
	Body   []byte
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// ---- Coverage handler tests ----

func TestCoverage_HoleFilledBySecondCandidate(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/coverage", scenarioJSON)
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.Status, resp.Body)
	}

	var body coverageBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		t.Fatal(err)
	}
	if body.Covered == nil || !near(*body.Covered, 62.5) {
		t.Errorf("expected 62.5%% covered, got %v", body.Covered)
	}
	if len(body.Partials) != 2 {
		t.Fatalf("expected 2 partials, got %d", len(body.Partials))
	}
	if !near(*body.Partials[0].Covered, 51.25) || !near(*body.Partials[1].Covered, 11.25) {
		t.Errorf("unexpected partials %v, %v", *body.Partials[0].Covered, *body.Partials[1].Covered)
	}

	var leftover struct {
		Type        string          `json:"type"`
		Coordinates [][][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(body.Leftover, &leftover); err != nil {
		t.Fatal(err)
	}
	if leftover.Type != "MultiPolygon" || len(leftover.Coordinates) != 2 {
		t.Errorf("expected two leftover strips, got %s with %d polygons", leftover.Type, len(leftover.Coordinates))
	}
	for _, poly := range leftover.Coordinates {
		ring := poly[0]
		if first, last := ring[0], ring[len(ring)-1]; first[0] != last[0] || first[1] != last[1] {
			t.Errorf("expected closed ring, got %v", ring)
		}
	}
}

func TestCoverage_NoCandidates(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/coverage", noCandidateJS)
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.Status, resp.Body)
	}

	var body coverageBody
	json.Unmarshal(resp.Body, &body)
	if body.Covered == nil || *body.Covered != 0 {
		t.Errorf("expected 0%% covered, got %v", body.Covered)
	}
	if body.Partials == nil || len(body.Partials) != 0 {
		t.Errorf("expected empty partialCoverages, got %v", body.Partials)
	}
	if !strings.Contains(string(body.Leftover), "[180,200]") {
		t.Errorf("expected subject returned as leftover, got %s", body.Leftover)
	}
}

func TestCoverage_ZeroAreaSubjectEncodesNull(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/coverage", `{"areaToBeCovered":{"area":`+emptyJSON+`},"intersectingCandidates":[{"area":`+subjectJSON+`}]}`)
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.Status, resp.Body)
	}

	var raw map[string]any
	json.Unmarshal(resp.Body, &raw)
	if v, ok := raw["covered%"]; !ok || v != nil {
		t.Errorf("expected covered%% to be present and null, got %v (present=%v)", v, ok)
	}
}

func TestCoverage_MalformedJSON(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/coverage", `{"areaToBeCovered":`)
	if resp.Status != 400 {
		t.Fatalf("expected 400, got %d", resp.Status)
	}

	var apiErr apiError
	json.Unmarshal(resp.Body, &apiErr)
	if apiErr.Code != "malformed_input" {
		t.Errorf("expected malformed_input, got %s", apiErr.Code)
	}
	if apiErr.RequestID == "" {
		t.Error("expected request_id in error body")
	}
}

func TestCoverage_MissingArea(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/coverage", `{"areaToBeCovered":{"_id":"x"}}`)
	if resp.Status != 400 {
		t.Fatalf("expected 400, got %d", resp.Status)
	}
}

func TestCoverage_InvalidCandidateKind(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"areaToBeCovered":{"area":` + subjectJSON + `},"intersectingCandidates":[{"area":` + triangleJSON + `},{"area":` + lineJSON + `}]}`
	resp := post(t, app, "/v1/coverage", body)
	if resp.Status != 422 {
		t.Fatalf("expected 422, got %d", resp.Status)
	}

	var apiErr apiError
	json.Unmarshal(resp.Body, &apiErr)
	if apiErr.Code != "invalid_geometry_kind" {
		t.Errorf("expected invalid_geometry_kind, got %s", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "candidate 1") {
		t.Errorf("expected message to name candidate 1, got %q", apiErr.Message)
	}
}

func TestCoverage_InvalidSubjectKind(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/coverage", `{"areaToBeCovered":{"area":`+lineJSON+`}}`)
	if resp.Status != 422 {
		t.Fatalf("expected 422, got %d", resp.Status)
	}

	var apiErr apiError
	json.Unmarshal(resp.Body, &apiErr)
	if !strings.HasPrefix(apiErr.Message, "subject") {
		t.Errorf("expected message to name the subject, got %q", apiErr.Message)
	}
}

func TestCoverage_TooManyCandidates(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Coverage = usecases.NewCoverageService(clip.New(clip.Planar), 1, usecases.WithMaxCandidates(1))
	})
	app := setupApp(deps)

	resp := post(t, app, "/v1/coverage", scenarioJSON)
	if resp.Status != 422 {
		t.Fatalf("expected 422, got %d", resp.Status)
	}

	var apiErr apiError
	json.Unmarshal(resp.Body, &apiErr)
	if apiErr.Code != "too_many_candidates" {
		t.Errorf("expected too_many_candidates, got %s", apiErr.Code)
	}
}

func TestCoverage_NotCached(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/coverage", noCandidateJS)
	if cc := resp.Header("Cache-Control"); cc != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", cc)
	}
}

func TestLegacyCoverage_Deprecated(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/coverage", scenarioJSON)
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if resp.Header("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if !strings.Contains(resp.Header("Link"), "/v1/coverage") {
		t.Errorf("expected successor link, got %q", resp.Header("Link"))
	}
	if resp.Header("Sunset") == "" {
		t.Error("expected Sunset header")
	}

	current := post(t, app, "/v1/coverage", scenarioJSON)
	if current.Header("Deprecation") != "" {
		t.Error("versioned route must not be marked deprecated")
	}
	if string(current.Body) != string(resp.Body) {
		t.Error("legacy and versioned routes should answer identically")
	}
}

// ---- Leftover handler tests ----

func TestLeftover_Success(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/leftover", `{"subject":`+subjectJSON+`,"clippers":[`+withHoleJSON+`]}`)
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.Status, resp.Body)
	}

	var g struct {
		Type        string          `json:"type"`
		Coordinates [][][][]float64 `json:"coordinates"`
	}
	json.Unmarshal(resp.Body, &g)
	// two strips plus the triangle left by the hole
	if g.Type != "MultiPolygon" || len(g.Coordinates) != 3 {
		t.Errorf("expected 3 polygons, got %s with %d", g.Type, len(g.Coordinates))
	}
}

func TestLeftover_MissingSubject(t *testing.T) {
	app := setupApp(makeDeps())

	resp := post(t, app, "/v1/leftover", `{"clippers":[]}`)
	if resp.Status != 400 {
		t.Fatalf("expected 400, got %d", resp.Status)
	}
}

// ---- GraphQL tests ----

func TestGraphQL_Coverage(t *testing.T) {
	app := setupApp(makeDeps())

	reqBody, _ := json.Marshal(map[string]any{
		"query": `query($s: String!, $c: [String!]!) {
			coverage(subject: $s, candidates: $c) { coveredPercentage partialCoverages { coveredPercentage } }
		}`,
		"variables": map[string]any{"s": subjectJSON, "c": []string{withHoleJSON, triangleJSON}},
	})
	resp := post(t, app, "/graphql", string(reqBody))
	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}

	var result struct {
		Data struct {
			Coverage struct {
				CoveredPercentage *float64 `json:"coveredPercentage"`
				PartialCoverages  []struct {
					CoveredPercentage *float64 `json:"coveredPercentage"`
				} `json:"partialCoverages"`
			} `json:"coverage"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if cp := result.Data.Coverage.CoveredPercentage; cp == nil || !near(*cp, 62.5) {
		t.Errorf("expected 62.5, got %v", cp)
	}
	if len(result.Data.Coverage.PartialCoverages) != 2 {
		t.Errorf("expected 2 partials, got %d", len(result.Data.Coverage.PartialCoverages))
	}
}

func TestGraphQL_InvalidKindReportsError(t *testing.T) {
	app := setupApp(makeDeps())

	reqBody, _ := json.Marshal(map[string]any{
		"query":     `query($s: String!) { coverage(subject: $s, candidates: []) { coveredPercentage } }`,
		"variables": map[string]any{"s": lineJSON},
	})
	resp := post(t, app, "/graphql", string(reqBody))

	if !strings.Contains(string(resp.Body), "subject can only be polygon or multipolygon") {
		t.Errorf("expected geometry kind error, got %s", resp.Body)
	}
}

func TestGraphQL_Leftover(t *testing.T) {
	app := setupApp(makeDeps())

	reqBody, _ := json.Marshal(map[string]any{
		"query":     `query($s: String!, $c: [String!]!) { leftover(subject: $s, clippers: $c) }`,
		"variables": map[string]any{"s": subjectJSON, "c": []string{subjectJSON}},
	})
	resp := post(t, app, "/graphql", string(reqBody))

	var result struct {
		Data struct {
			Leftover string `json:"leftover"`
		} `json:"data"`
	}
	json.Unmarshal(resp.Body, &result)
	if !strings.HasPrefix(result.Data.Leftover, `{"type":"MultiPolygon"`) {
		t.Errorf("expected MultiPolygon string, got %q", result.Data.Leftover)
	}
}

// ---- Health tests ----

func TestHealth_ReportsUptime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Clock = clock
		d.Version = "1.2.3"
	})
	app := setupApp(deps)
	clock.Advance(90 * time.Second)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["uptime"] != "1m30s" {
		t.Errorf("expected uptime 1m30s, got %q", body["uptime"])
	}
	if body["version"] != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", body["version"])
	}
}

func TestHealth_ETagNotModified(t *testing.T) {
	app := setupApp(makeDeps())

	first, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/health", nil)
	req.Header.Set("If-None-Match", etag)
	second, _ := app.Test(req, -1)
	if second.StatusCode != 304 {
		t.Errorf("expected 304, got %d", second.StatusCode)
	}
}

func TestReady_NoDependencies(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Checks["nats"] != "not configured" || body.Checks["ratelimit_store"] != "in-memory" {
		t.Errorf("unexpected checks %v", body.Checks)
	}
}

// ---- Rate limiting and docs ----

func TestRateLimit_Exceeded(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.RateLimitMax = 2
		d.RateLimitWindow = time.Minute
	})
	app := setupApp(deps)

	var last *httptestResponse
	for i := 0; i < 3; i++ {
		last = post(t, app, "/v1/coverage", noCandidateJS)
	}
	if last.Status != 429 {
		t.Fatalf("expected 429, got %d", last.Status)
	}

	var apiErr apiError
	json.Unmarshal(last.Body, &apiErr)
	if apiErr.Code != "rate_limited" {
		t.Errorf("expected rate_limited, got %s", apiErr.Code)
	}
}

func TestDocs_ServesOpenAPI(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.OpenAPIPath = findOpenAPISpec(t)
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp.Body)), "/v1/coverage") {
		t.Error("expected coverage path in served document")
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/docs/openapi.json", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for JSON rendering, got %d", resp.StatusCode)
	}
	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.OpenAPI != "3.0.3" || doc.Paths["/v1/leftover"] == nil {
		t.Errorf("unexpected JSON document: openapi=%q, %d paths", doc.OpenAPI, len(doc.Paths))
	}

	missing := setupApp(makeDeps(func(d *handler.Dependencies) { d.OpenAPIPath = "does/not/exist.yaml" }))
	for _, path := range []string{"/docs/openapi.yaml", "/docs/openapi.json"} {
		resp, _ = missing.Test(httptest.NewRequest("GET", path, nil), -1)
		if resp.StatusCode != 404 {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}
