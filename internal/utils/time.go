package utils

import "time"

func Now() time.Time {
	return time.Now().UTC()
}

func UnixToTime(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}
