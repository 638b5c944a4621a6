// Package subset resolves a variables/time/bbox query to one dataset and
// extracts the requested rectangular sub-arrays as raw bytes.
package subset

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/dap"
	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/metrics"
	"github.com/climkit/ccidex/internal/opensearch"
)

// SearchClient is the consumer interface for the paginated search endpoint.
type SearchClient interface {
	FetchAll(ctx context.Context, query opensearch.Query) ([]domain.Feature, error)
}

// DataClient is the consumer interface for the array-access protocol.
type DataClient interface {
	FetchCoordinates(ctx context.Context, endpoint string) (map[string][]float64, error)
	FetchSlice(ctx context.Context, endpoint, variable string, window []dap.Range) ([]float32, error)
}

// Request is one subset query: a variable list, a time range, a bounding
// box, and arbitrary extra search filters (parent identifier, drs id, ...).
type Request struct {
	VarNames  []string
	StartDate time.Time
	EndDate   time.Time
	// BBox is lonMin, latMin, lonMax, latMax.
	BBox  [4]float64
	Query opensearch.Query
}

// Engine extracts binary sub-arrays from remote datasets.
type Engine struct {
	search SearchClient
	data   DataClient
	logger *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(search SearchClient, data DataClient, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{search: search, data: data, logger: logger}
}

// Extract fetches the matching feature list, selects the qualifying granule,
// computes index windows from the coordinate preamble, and packs every
// requested variable's sub-array into one flat little-endian float32 buffer,
// variable-major.
func (e *Engine) Extract(ctx context.Context, req Request) ([]byte, error) {
	query := opensearch.Query{}
	for k, v := range req.Query {
		query[k] = v
	}
	// The server does not support temporal or spatial filtering yet;
	// containment is checked against each feature's declared range instead.
	delete(query, "startDate")
	delete(query, "endDate")
	delete(query, "bbox")

	features, err := e.search.FetchAll(ctx, query)
	if err != nil {
		return nil, err
	}

	endpoint := e.selectEndpoint(features, req.StartDate, req.EndDate)
	if endpoint == "" {
		return nil, fmt.Errorf("%w for this query", domain.ErrNoDataset)
	}

	axes, err := e.data.FetchCoordinates(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	timeStart, timeEnd := timeWindow(axes["time"],
		float64(req.StartDate.Unix()), float64(req.EndDate.Unix()))
	latStart, latEnd := spatialWindow(axes["lat"], req.BBox[1], req.BBox[3])
	lonStart, lonEnd := spatialWindow(axes["lon"], req.BBox[0], req.BBox[2])

	timeCount := timeEnd - timeStart
	latCount := latEnd - latStart
	lonCount := lonEnd - lonStart
	if timeCount <= 0 || latCount <= 0 || lonCount <= 0 {
		return nil, fmt.Errorf("%w: requested window selects no cells", domain.ErrNoDataset)
	}

	window := []dap.Range{
		{Start: timeStart, End: timeEnd},
		{Start: latStart, End: latEnd},
		{Start: lonStart, End: lonEnd},
	}

	buf := &bytes.Buffer{}
	buf.Grow(len(req.VarNames) * timeCount * latCount * lonCount * 4)
	for _, name := range req.VarNames {
		values, err := e.data.FetchSlice(ctx, endpoint, name, window)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		// The source orders latitude descending; the windows assume
		// ascending, so rows are reversed per time slab.
		flipLatitude(values, timeCount, latCount, lonCount)
		for _, v := range values {
			if err := binary.Write(buf, binary.LittleEndian, math.Float32bits(v)); err != nil {
				return nil, fmt.Errorf("pack %s: %w", name, err)
			}
		}
	}

	metrics.AddSubsetBytes(buf.Len())
	return buf.Bytes(), nil
}

// selectEndpoint picks the array-access endpoint among the returned
// features: the feature's declared date range must be fully contained in the
// requested range and its links must include the endpoint. The last
// qualifying feature wins.
func (e *Engine) selectEndpoint(features []domain.Feature, start, end time.Time) string {
	var endpoint string
	for _, f := range features {
		if !f.HasTimeRange() {
			continue
		}
		if f.StartTime.Before(start) || f.EndTime.After(end) {
			continue
		}
		url := f.OpendapURL()
		if url == "" {
			continue
		}
		if endpoint != "" {
			e.logger.Debug("later qualifying feature replaces earlier match",
				zap.String("title", f.Title))
		}
		endpoint = url
	}
	return endpoint
}

// flipLatitude reverses the row order along the latitude axis of a flat
// [time][lat][lon] array, in place.
func flipLatitude(values []float32, timeCount, latCount, lonCount int) {
	for t := 0; t < timeCount; t++ {
		slab := values[t*latCount*lonCount : (t+1)*latCount*lonCount]
		for low, high := 0, latCount-1; low < high; low, high = low+1, high-1 {
			lowRow := slab[low*lonCount : (low+1)*lonCount]
			highRow := slab[high*lonCount : (high+1)*lonCount]
			for i := range lowRow {
				lowRow[i], highRow[i] = highRow[i], lowRow[i]
			}
		}
	}
}
