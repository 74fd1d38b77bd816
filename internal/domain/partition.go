package domain

import "fmt"

// PartitionKey is the (year, month, day, hour) tuple used to organize both the
// physical dataset layout and catalog metadata. All components are zero-padded
// strings so that lexical and chronological ordering agree.
type PartitionKey struct {
	Year  string
	Month string
	Day   string
	Hour  string
}

// Path renders the key as a Hive-style partition path fragment, without
// leading or trailing slashes.
func (k PartitionKey) Path() string {
	return fmt.Sprintf("year=%s/month=%s/day=%s/hour=%s", k.Year, k.Month, k.Day, k.Hour)
}

func (k PartitionKey) String() string {
	return k.Path()
}
