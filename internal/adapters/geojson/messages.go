package geojsonadapter

import (
	"encoding/json"
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"github.com/samirrijal/geocover/internal/core/domain"
)

// AreaPayload is a geometry with an optional caller identifier.
type AreaPayload struct {
	ID   *string           `json:"_id,omitempty"`
	Area *geojson.Geometry `json:"area"`
}

// CoverageRequest is the body accepted by every coverage transport.
type CoverageRequest struct {
	Subject    *AreaPayload  `json:"areaToBeCovered"`
	Candidates []AreaPayload `json:"intersectingCandidates"`
}

// LeftoverRequest asks only for what remains of subject after the clippers.
type LeftoverRequest struct {
	Subject  *geojson.Geometry   `json:"subject"`
	Clippers []*geojson.Geometry `json:"clippers"`
}

// PartialCoverage is one entry of CoverageResponse.PartialCoverages.
type PartialCoverage struct {
	CoveredPercent domain.Percentage `json:"covered%"`
	Leftover       *geojson.Geometry `json:"leftover,omitempty"`
	CoveredArea    *geojson.Geometry `json:"coveredArea,omitempty"`
}

// CoverageResponse is the encoded AggregateCoverageResult.
type CoverageResponse struct {
	CoveredPercent   domain.Percentage `json:"covered%"`
	Leftover         *geojson.Geometry `json:"leftover,omitempty"`
	CoveredArea      *geojson.Geometry `json:"coveredArea,omitempty"`
	PartialCoverages []PartialCoverage `json:"partialCoverages"`
}

// DecodeCoverageRequest parses and normalizes a coverage request body.
// Every geometry is validated before anything is returned, so a bad
// candidate anywhere in the list rejects the whole request.
func DecodeCoverageRequest(data []byte) (domain.GeoArea, []domain.GeoArea, error) {
	var req CoverageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return domain.GeoArea{}, nil, &domain.MalformedInputError{Err: err}
	}
	return req.Areas()
}

// Areas validates and normalizes the request geometries.
func (r CoverageRequest) Areas() (domain.GeoArea, []domain.GeoArea, error) {
	if r.Subject == nil {
		return domain.GeoArea{}, nil, &domain.MalformedInputError{Field: "areaToBeCovered"}
	}
	if r.Subject.Area == nil {
		return domain.GeoArea{}, nil, &domain.MalformedInputError{Field: "areaToBeCovered.area"}
	}
	subjectMP, err := ToMultiPolygon(r.Subject.Area, domain.RoleSubject, 0)
	if err != nil {
		return domain.GeoArea{}, nil, err
	}
	subject := domain.GeoArea{ID: r.Subject.ID, Area: subjectMP}

	candidates := make([]domain.GeoArea, 0, len(r.Candidates))
	for i, c := range r.Candidates {
		if c.Area == nil {
			return domain.GeoArea{}, nil, &domain.MalformedInputError{Field: fmt.Sprintf("intersectingCandidates[%d].area", i)}
		}
		mp, err := ToMultiPolygon(c.Area, domain.RoleCandidate, i)
		if err != nil {
			return domain.GeoArea{}, nil, err
		}
		candidates = append(candidates, domain.GeoArea{ID: c.ID, Area: mp})
	}
	return subject, candidates, nil
}

// DecodeLeftoverRequest parses and normalizes a leftover request body.
func DecodeLeftoverRequest(data []byte) (domain.MultiPolygon, []domain.MultiPolygon, error) {
	var req LeftoverRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, nil, &domain.MalformedInputError{Err: err}
	}
	return req.Geometries()
}

// Geometries validates and normalizes the subject and clippers.
func (req LeftoverRequest) Geometries() (domain.MultiPolygon, []domain.MultiPolygon, error) {
	if req.Subject == nil {
		return nil, nil, &domain.MalformedInputError{Field: "subject"}
	}
	subject, err := ToMultiPolygon(req.Subject, domain.RoleSubject, 0)
	if err != nil {
		return nil, nil, err
	}
	clippers := make([]domain.MultiPolygon, 0, len(req.Clippers))
	for i, g := range req.Clippers {
		if g == nil {
			return nil, nil, &domain.MalformedInputError{Field: fmt.Sprintf("clippers[%d]", i)}
		}
		mp, err := ToMultiPolygon(g, domain.RoleCandidate, i)
		if err != nil {
			return nil, nil, err
		}
		clippers = append(clippers, mp)
	}
	return subject, clippers, nil
}

// EncodeCoverage renders res for the wire.
func EncodeCoverage(res *domain.AggregateCoverageResult) CoverageResponse {
	out := CoverageResponse{
		CoveredPercent:   res.CoveredPercentage,
		Leftover:         encodeOptional(res.Leftover),
		CoveredArea:      encodeOptional(res.Covered),
		PartialCoverages: make([]PartialCoverage, 0, len(res.Partials)),
	}
	for _, p := range res.Partials {
		out.PartialCoverages = append(out.PartialCoverages, PartialCoverage{
			CoveredPercent: p.CoveredPercentage,
			Leftover:       encodeOptional(p.Leftover),
			CoveredArea:    encodeOptional(p.Covered),
		})
	}
	return out
}

func encodeOptional(mp *domain.MultiPolygon) *geojson.Geometry {
	if mp == nil {
		return nil
	}
	return EncodeMultiPolygon(*mp)
}
