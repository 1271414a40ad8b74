package devices

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/enodebd/internal/datamodel"
)

// bandwidthRBs maps channel bandwidth in MHz to the resource-block notation
// used by TR-196 devices.
var bandwidthRBs = map[string]string{
	"1.4": "n6",
	"3":   "n15",
	"5":   "n25",
	"10":  "n50",
	"15":  "n75",
	"20":  "n100",
}

// bandwidthFromDevice turns "n100" into "20". Plain MHz values pass through.
func bandwidthFromDevice(v any) (any, error) {
	s := fmt.Sprint(v)
	for mhz, rbs := range bandwidthRBs {
		if s == rbs {
			return mhz, nil
		}
	}
	if _, ok := bandwidthRBs[s]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: unknown bandwidth %q", datamodel.ErrInvalidValue, s)
}

// bandwidthToDevice turns "20" into "n100".
func bandwidthToDevice(v any) (any, error) {
	s := fmt.Sprint(v)
	if rbs, ok := bandwidthRBs[s]; ok {
		return rbs, nil
	}
	return nil, fmt.Errorf("%w: unsupported bandwidth %q MHz", datamodel.ErrInvalidValue, s)
}

// gpsFromMicrodegrees converts TR-181 millionths of a degree to decimal
// degrees.
func gpsFromMicrodegrees(v any) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(v)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: gps coordinate %q", datamodel.ErrInvalidValue, v)
	}
	return strconv.FormatFloat(float64(n)/1e6, 'f', 6, 64), nil
}

// cellReservedFromDevice maps the QAFB keywords to "true" and "false".
func cellReservedFromDevice(v any) (any, error) {
	switch s := fmt.Sprint(v); s {
	case "reserved":
		return "true", nil
	case "not_reserved":
		return "false", nil
	default:
		return nil, fmt.Errorf("%w: cell reservation %q", datamodel.ErrInvalidValue, s)
	}
}

func cellReservedToDevice(v any) (any, error) {
	b, err := datamodel.Coerce(datamodel.TypeBoolean, v)
	if err != nil {
		return nil, err
	}
	if b.(bool) {
		return "reserved", nil
	}
	return "not_reserved", nil
}
