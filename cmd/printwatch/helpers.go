package main

import "time"

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func okFailed(value bool) string {
	if value {
		return "ok"
	}
	return "failed"
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}
