package circuit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// piExprRegex matches an optional sign, an optional coefficient, pi and an
// optional denominator: "pi", "-pi/2", "3*pi/4", "2pi".
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// parseParamExpr evaluates a QASM parameter: a plain number or a multiple of
// pi as matched by piExprRegex.
func parseParamExpr(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, true
	}

	s = strings.ToLower(s)
	matches := piExprRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, false
	}
	negative := matches[1] == "-"
	coeffStr := matches[2]
	denomStr := matches[3]

	coeff := 1.0
	if coeffStr != "" {
		var err error
		coeff, err = strconv.ParseFloat(coeffStr, 64)
		if err != nil {
			return 0, false
		}
	}

	result := coeff * math.Pi

	if denomStr != "" {
		denom, err := strconv.ParseFloat(denomStr, 64)
		if err != nil || denom == 0 {
			return 0, false
		}
		result /= denom
	}

	if negative {
		result = -result
	}
	return result, true
}

// parseParamList parses a comma separated parameter list.
func parseParamList(input string) ([]float64, error) {
	var params []float64
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		val, ok := parseParamExpr(part)
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q", part)
		}
		params = append(params, val)
	}
	return params, nil
}

// formatParam formats a float64 parameter value, using pi notation when
// the value is a small multiple of pi over a power of two or over 3.
func formatParam(val float64) string {
	if val == 0 {
		return "0"
	}
	sign := ""
	abs := val
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	for _, denom := range []int{1, 2, 3, 4, 6, 8, 16, 32, 64, 128, 256, 512, 1024} {
		num := abs * float64(denom) / math.Pi
		rounded := math.Round(num)
		if rounded < 1 || rounded > 16 || math.Abs(num-rounded) > 1e-9 {
			continue
		}
		n := int(rounded)
		switch {
		case n == 1 && denom == 1:
			return sign + "pi"
		case n == 1:
			return fmt.Sprintf("%spi/%d", sign, denom)
		case denom == 1:
			return fmt.Sprintf("%s%d*pi", sign, n)
		default:
			return fmt.Sprintf("%s%d*pi/%d", sign, n, denom)
		}
	}
	return strconv.FormatFloat(val, 'g', -1, 64)
}
