package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dht-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ago": func(now, then time.Time) string {
		return now.Sub(then).Truncate(time.Second).String()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>DHT11 Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.value { font-weight: bold; }
.ok { color: green; }
.fault { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>DHT11 Sensor</h1>

<h2>Reading</h2>
<table>
{{if .HaveReading}}<tr><th>Temperature</th><td id="temperature" class="value">{{printf "%.1f" .Reading.Temperature}} &deg;C</td></tr>
<tr><th>Humidity</th><td id="humidity" class="value">{{printf "%.1f" .Reading.Humidity}} %</td></tr>
<tr><th>Read</th><td>{{ago .Now .LastReadAt}} ago</td></tr>
{{else}}<tr><th>Temperature</th><td class="unknown">UNKNOWN</td></tr>
<tr><th>Humidity</th><td class="unknown">UNKNOWN</td></tr>
{{end}}<tr><th>Sensor</th><td id="sensor-state" class="{{if .Faulted}}fault{{else}}ok{{end}}">{{if .Faulted}}FAULT{{else}}OK{{end}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td>{{.LastError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Polls</th><td>{{.Counts.Polls}}</td></tr>
<tr><th>Failed polls</th><td>{{.Counts.PollFailures}}</td></tr>
<tr><th>Attempts</th><td>{{.Counts.Attempts}}</td></tr>
<tr><th>Timeouts</th><td>{{.Counts.Timeouts}}</td></tr>
<tr><th>Read failures</th><td>{{.Counts.ReadFailures}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Pin}} ({{.Config.Backend}})</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Retry</th><td>{{.Config.Retry}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has an Uptime method but the template needs a field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
