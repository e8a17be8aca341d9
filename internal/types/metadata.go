package types

import (
	"strconv"
)

// Metadata is the string map attached to provider objects
type Metadata map[string]string

// Breadcrumb keys written on every subscription next to the compact rule chunks
const (
	MetadataKeyAccountType      = "account_type"
	MetadataKeyScheduleAttached = "schedule_attached"
	MetadataKeyScheduleID       = "schedule_id"
	MetadataKeyAddressCount     = "address_count"
)

// ScheduleAttached reports whether reconciliation already completed for the owner of m
func (m Metadata) ScheduleAttached() bool {
	attached, err := strconv.ParseBool(m[MetadataKeyScheduleAttached])
	return err == nil && attached
}

// Merge returns a copy of m overlaid with every key of other
func (m Metadata) Merge(other map[string]string) Metadata {
	out := make(Metadata, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
