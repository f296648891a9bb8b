package model

import "time"

// TagLayout formats snapshot tags so that lexicographic order is chronological.
const TagLayout = "20060102-150405"

type Snapshot struct {
	Tag       string
	CreatedAt time.Time
	Listings  ListingSet
}

func TagFor(t time.Time) string {
	return t.UTC().Format(TagLayout)
}

func ParseTag(tag string) (time.Time, error) {
	return time.ParseInLocation(TagLayout, tag, time.UTC)
}
