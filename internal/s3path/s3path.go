// Package s3path parses S3 locations into (bucket, key) pairs and derives
// dependent locations. All functions are pure.
package s3path

import (
	"errors"
	"fmt"
	"strings"
)

const scheme = "s3://"

// resultsPrefix is the fixed prefix under which Athena query results are
// written, in the same bucket as the job output.
const resultsPrefix = "athena-results/"

// ErrInvalidLocation indicates a location string that does not use the s3:// scheme.
var ErrInvalidLocation = errors.New("invalid s3 location")

// Parse splits an s3://bucket/key location into its bucket and key. The key
// may be empty for bucket-root locations.
func Parse(location string) (bucket, key string, err error) {
	if !strings.HasPrefix(location, scheme) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(location, scheme), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket", ErrInvalidLocation, location)
	}

	return bucket, key, nil
}

// ResultsLocation derives the Athena query-results location from the job
// output location: a sibling prefix in the same bucket.
func ResultsLocation(outputLocation string) (string, error) {
	bucket, _, err := Parse(outputLocation)
	if err != nil {
		return "", err
	}
	return scheme + bucket + "/" + resultsPrefix, nil
}
