package kite

import "time"

// Taipei is the fixed UTC+8 zone every displayed time is expressed in.
var Taipei = time.FixedZone("UTC+8", 8*60*60)

const timestampLayout = "2006年01月02日 15:04:05 (UTC+8)"

// FormatTW formats t the way Taiwanese users read dates, in UTC+8.
func FormatTW(t time.Time) string {
	return t.In(Taipei).Format(timestampLayout)
}
