package model

import "strconv"

var bucketColors = [MaxRating + 1]string{
	0: "#9ca3af",
	1: "#ef4444",
	2: "#f59e0b",
	3: "#3b82f6",
	4: "#22d3ee",
	5: "#10b981",
}

// BucketColor returns the marker and legend color for a rating bucket.
func BucketColor(bucket int) string {
	return bucketColors[Bucket(float64(bucket))]
}

// BucketLabel returns the legend label for a rating bucket: "5★" through
// "1★", and "unrated" for 0.
func BucketLabel(bucket int) string {
	b := Bucket(float64(bucket))
	if b == MinRating {
		return "unrated"
	}
	return strconv.Itoa(b) + "★"
}
