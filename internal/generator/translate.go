package generator

import (
	"math"
	"strconv"
	"strings"
)

// goodBatteryPattern is matched case-insensitively against the battery descriptor.
const goodBatteryPattern = "good"

// Translate maps a raw vendor payload to normalised attributes.
//
// It never fails: unknown status codes clamp to StatusUnknown and missing
// signal or battery data fall back to fixed defaults.
func Translate(raw RawStatus) Attributes {
	attrs := Attributes{
		DisplayName:       raw.Name,
		Model:             raw.Model,
		SerialNumber:      raw.SerialNumber,
		FirmwareVersion:   raw.FirmwareVersion,
		Description:       raw.Description,
		SignalStrength:    raw.SignalStrength,
		BatteryDescriptor: raw.BatteryVoltage,
		Reachable:         raw.Connected,
		Charging:          NotCharging,
		LinkQuality:       LinkQuality(raw.SignalStrength),
	}

	if raw.Connected {
		attrs.Charging = Charging
	}

	switch raw.Kind {
	case KindFlags:
		applyFlags(&attrs, raw.Flags)
		attrs.BatteryLevel = batteryLevel(raw.BatteryVoltage)
	default:
		applyCode(&attrs, raw.Code)
		if raw.BatteryVoltage == "" {
			// v2 payloads carry no voltage signal at all.
			attrs.BatteryLevel = BatteryFull
		} else {
			attrs.BatteryLevel = batteryLevel(raw.BatteryVoltage)
		}
	}
	attrs.BatteryNormal = attrs.BatteryLevel == BatteryFull

	return attrs
}

func applyFlags(attrs *Attributes, flags *FlagStatus) {
	var f FlagStatus
	if flags != nil {
		f = *flags
	}

	attrs.HasFault = f.Red
	attrs.Ready = f.Green || f.Yellow
	attrs.Running = f.Blue

	switch {
	case f.Red:
		attrs.Status = StatusFault
	case f.Blue:
		attrs.Status = StatusRunning
	case f.Yellow:
		attrs.Status = StatusWarning
	case f.Green:
		attrs.Status = StatusReady
	default:
		attrs.Status = StatusStopped
	}
}

func applyCode(attrs *Attributes, code *CodeStatus) {
	n := 0
	if code != nil {
		n = code.Code
	}

	status := StatusForCode(n)
	attrs.Status = status
	attrs.HasFault = status == StatusCommunicationIssue || status == StatusUnknown
	attrs.Ready = status == StatusReady || status == StatusWarning
	attrs.Running = status == StatusRunning || status == StatusExercising
}

// StatusForCode looks up a 1-indexed v2 status code.
// Codes outside the table resolve to StatusUnknown.
func StatusForCode(code int) StatusText {
	if code < 1 || code > len(statusTable) {
		return statusTable[len(statusTable)-1]
	}
	return statusTable[code-1]
}

func batteryLevel(descriptor string) int {
	if strings.Contains(strings.ToLower(descriptor), goodBatteryPattern) {
		return BatteryFull
	}
	return BatteryEmpty
}

// LinkQuality scales a signal-strength reading such as "-45%" onto the 1-4 band.
//
// The sign is ignored. An empty or unparsable reading, or a zero magnitude,
// reports the minimum band.
func LinkQuality(signal string) int {
	s := strings.TrimSpace(signal)
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return MinLinkQuality
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return MinLinkQuality
	}

	// Clamp on the float so huge or infinite readings cannot overflow int.
	m := math.Abs(v)
	if m >= 100 {
		return MaxLinkQuality
	}

	band := int(math.Ceil(m * MaxLinkQuality / 100))
	if band < MinLinkQuality {
		return MinLinkQuality
	}
	return band
}
