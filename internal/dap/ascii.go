package dap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/climkit/ccidex/internal/domain"
)

var axisHeaderRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[([0-9]+)\]$`)

// ParseCoordinates reads the plain-text coordinate preamble (the
// ".ascii?time,lat,lon" response): each axis is a "name[count]" header line
// followed by one line of comma-separated values.
func ParseCoordinates(text string) (map[string][]float64, error) {
	axes := map[string][]float64{}
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		m := axisHeaderRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil || i+1 >= len(lines) {
			continue
		}
		name := m[1]
		values, err := parseValueLine(lines[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: coordinate axis %s: %v", domain.ErrParse, name, err)
		}
		if declared, err := strconv.Atoi(m[2]); err == nil && declared != len(values) {
			return nil, fmt.Errorf("%w: coordinate axis %s declares %d values, got %d",
				domain.ErrParse, name, declared, len(values))
		}
		axes[name] = values
		i++
	}
	return axes, nil
}

func parseValueLine(line string) ([]float64, error) {
	fields := strings.Split(line, ",")
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", strings.TrimSpace(field))
		}
		values = append(values, v)
	}
	return values, nil
}
