package generator

// HasChanged reports whether next differs from prev in any user-visible field.
//
// A nil prev is a first observation and always counts as a change. Only
// connectivity, firmware, the running/ready/fault indicators, the raw signal
// and battery descriptors, name and serial are compared.
func HasChanged(prev *Attributes, next Attributes) bool {
	if prev == nil {
		return true
	}

	return prev.Reachable != next.Reachable ||
		prev.FirmwareVersion != next.FirmwareVersion ||
		prev.Running != next.Running ||
		prev.Ready != next.Ready ||
		prev.HasFault != next.HasFault ||
		prev.SignalStrength != next.SignalStrength ||
		prev.BatteryDescriptor != next.BatteryDescriptor ||
		prev.DisplayName != next.DisplayName ||
		prev.SerialNumber != next.SerialNumber
}
