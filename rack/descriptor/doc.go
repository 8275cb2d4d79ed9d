// Package descriptor describes plugin types: their audio, control, status and
// auxiliary port layout, default control values and the registry through
// which hosts look them up by type ID or label.
//
// A Descriptor is immutable once registered and is shared by reference by
// every chain entry of that type.
package descriptor
