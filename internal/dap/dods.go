package dap

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/climkit/ccidex/internal/domain"
)

// dataMarker separates the structure header from the binary payload of a
// ".dods" response.
var dataMarker = []byte("\nData:\n")

// Range is a half-open index window [Start, End) along one dimension.
type Range struct {
	Start int
	End   int
}

// Count returns the number of indices in the window.
func (r Range) Count() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Client retrieves binary sub-arrays through a dataset's array-access
// endpoint.
type Client struct {
	httpc *http.Client
}

// NewClient creates a Client. A nil httpc falls back to a default client.
func NewClient(httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Client{httpc: httpc}
}

// FetchCoordinates retrieves and parses the time/lat/lon coordinate
// preamble of the dataset at endpoint.
func (c *Client) FetchCoordinates(ctx context.Context, endpoint string) (map[string][]float64, error) {
	body, err := c.get(ctx, endpoint+".ascii?time,lat,lon")
	if err != nil {
		return nil, err
	}
	return ParseCoordinates(string(body))
}

// FetchStructure retrieves and parses the dataset's structure dump.
func (c *Client) FetchStructure(ctx context.Context, endpoint string) (map[string]int, map[string]domain.VariableInfo, error) {
	body, err := c.get(ctx, endpoint+".dds")
	if err != nil {
		return nil, nil, err
	}
	dims, vars := ParseDDS(string(body))
	return dims, vars, nil
}

// FetchAttributes retrieves and parses the dataset's attribute dump.
func (c *Client) FetchAttributes(ctx context.Context, endpoint string) (domain.Attributes, error) {
	body, err := c.get(ctx, endpoint+".das")
	if err != nil {
		return nil, err
	}
	return ParseDAS(string(body))
}

// FetchSlice retrieves one variable's rectangular sub-array as float32
// values in declaration order. The window lists one half-open range per
// declared dimension.
func (c *Client) FetchSlice(ctx context.Context, endpoint, variable string, window []Range) ([]float32, error) {
	expected := 1
	var constraints strings.Builder
	constraints.WriteString(variable)
	for _, r := range window {
		if r.Count() == 0 {
			return nil, nil
		}
		// Hyperslab bounds are inclusive on the wire.
		fmt.Fprintf(&constraints, "[%d:%d]", r.Start, r.End-1)
		expected *= r.Count()
	}

	body, err := c.get(ctx, endpoint+".dods?"+constraints.String())
	if err != nil {
		return nil, err
	}

	header, payload, found := bytes.Cut(body, dataMarker)
	if !found {
		return nil, fmt.Errorf("%w: data response has no payload marker", domain.ErrParse)
	}
	_, vars := ParseDDS(string(header))
	info, ok := vars[variable]
	if !ok {
		return nil, fmt.Errorf("%w: data response does not declare variable %s", domain.ErrParse, variable)
	}

	values, err := decodeArray(payload, info.DataType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", variable, err)
	}
	if len(values) != expected {
		return nil, fmt.Errorf("%w: variable %s: expected %d values, got %d",
			domain.ErrParse, variable, expected, len(values))
	}
	return values, nil
}

// decodeArray reads one XDR-encoded array: the element count twice as
// big-endian uint32, then the elements. Integer types narrower than 32 bits
// are promoted to 32 bits on the wire.
func decodeArray(payload []byte, dataType string) ([]float32, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: truncated array header", domain.ErrParse)
	}
	count := binary.BigEndian.Uint32(payload)
	if check := binary.BigEndian.Uint32(payload[4:]); check != count {
		return nil, fmt.Errorf("%w: array length markers disagree (%d vs %d)", domain.ErrParse, count, check)
	}
	data := payload[8:]

	values := make([]float32, count)
	switch dataType {
	case "Float32":
		if err := checkLen(data, int(count)*4); err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
		}
	case "Float64":
		if err := checkLen(data, int(count)*8); err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = float32(math.Float64frombits(binary.BigEndian.Uint64(data[i*8:])))
		}
	case "Int16", "Int32":
		if err := checkLen(data, int(count)*4); err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = float32(int32(binary.BigEndian.Uint32(data[i*4:])))
		}
	case "UInt16", "UInt32":
		if err := checkLen(data, int(count)*4); err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = float32(binary.BigEndian.Uint32(data[i*4:]))
		}
	case "Byte":
		if err := checkLen(data, int(count)); err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = float32(data[i])
		}
	default:
		return nil, fmt.Errorf("%w: unsupported data type %s", domain.ErrParse, dataType)
	}
	return values, nil
}

func checkLen(data []byte, need int) error {
	if len(data) < need {
		return fmt.Errorf("%w: array payload truncated (%d of %d bytes)", domain.ErrParse, len(data), need)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrUpstream, url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
