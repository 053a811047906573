package api

import (
	"gostats/domain/distribution"
	"gostats/domain/stats"
)

// DistributionPayload is a distribution on the wire
type DistributionPayload struct {
	Tags    distribution.Tags     `json:"tags"`
	Groups  []string              `json:"groups,omitempty"`
	Records []distribution.Record `json:"records" binding:"required"`
}

// TestRequest is the body of the test endpoints
type TestRequest struct {
	Distribution DistributionPayload  `json:"distribution"`
	AgainstEach  *DistributionPayload `json:"against_each,omitempty"`
	Params       stats.Params         `json:"params"`
	Persist      bool                 `json:"persist"`
}

// FacetRequest is the body of the decomposition endpoints
type FacetRequest struct {
	Distribution DistributionPayload `json:"distribution"`
}

// FacetPayload is one decomposed facet
type FacetPayload struct {
	Key          string              `json:"key"`
	Distribution DistributionPayload `json:"distribution"`
}

// FacetResponse lists the facets in first-encounter order
type FacetResponse struct {
	Mode   stats.FacetMode `json:"mode"`
	Facets []FacetPayload  `json:"facets"`
}

// CollateRequest is the body of the collate endpoint
type CollateRequest struct {
	Tables  []*stats.StatsTable `json:"tables" binding:"required"`
	Keys    []string            `json:"keys" binding:"required"`
	Persist bool                `json:"persist"`
}

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toDistribution(p *DistributionPayload) (*distribution.Distribution, error) {
	if p == nil {
		return nil, nil
	}
	return distribution.New(p.Records, p.Tags, p.Groups)
}

func fromDistribution(d *distribution.Distribution) DistributionPayload {
	return DistributionPayload{
		Tags:    d.Tags(),
		Groups:  d.Groups(),
		Records: d.Records(),
	}
}
