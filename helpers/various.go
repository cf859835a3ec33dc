package helpers

import "time"

func IntSecondDefault(i int, def time.Duration) time.Duration {
	if i <= 0 {
		return def
	}
	return time.Duration(i) * time.Second
}

func IntMillisecondDefault(i int, def time.Duration) time.Duration {
	if i <= 0 {
		return def
	}
	return time.Duration(i) * time.Millisecond
}
