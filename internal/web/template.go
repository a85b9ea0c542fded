package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/temcontrol/temcontrol/internal/status"
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
	"seconds": func(d time.Duration) int64 {
		return int64(d / time.Second)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Config.Hostname}} — temcontrol</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.err { color: red; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>{{.Config.Hostname}}<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Sensor</h2>
<table>
{{if .LastOKAt.IsZero}}
<tr><th>Temperature</th><td id="temp">—</td></tr>
<tr><th>Humidity</th><td id="hum">—</td></tr>
{{else}}
<tr><th>Temperature</th><td id="temp">{{printf "%.1f" .LastOK.Temperature}} °C</td></tr>
<tr><th>Humidity</th><td id="hum">{{printf "%.1f" .LastOK.Humidity}} %</td></tr>
<tr><th>Measured</th><td>{{.LastOKAt.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{end}}
{{if not .LastAt.IsZero}}<tr><th>Last attempt</th><td id="outcome" class="{{if eq (printf "%s" .Last.Outcome) "ok"}}on{{else}}err{{end}}">{{.Last.Outcome}}</td></tr>{{end}}
</table>

<h2>Relay</h2>
<table>
<tr><th>State</th><td id="relay" class="{{if .Relay.CurrentState}}on{{else}}off{{end}}">{{if .Relay.CurrentState}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Timer</th><td>{{if .Relay.Enabled}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>On / Off</th><td>{{seconds .Relay.OnDuration}}s / {{seconds .Relay.OffDuration}}s</td></tr>
</table>

<h2>Read Counts</h2>
<table>
<tr><th>OK</th><td>{{.Counts.OK}}</td></tr>
<tr><th>Timeout</th><td>{{.Counts.Timeout}}</td></tr>
<tr><th>Checksum mismatch</th><td>{{.Counts.Checksum}}</td></tr>
<tr><th>Not present</th><td>{{.Counts.NotPresent}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var tempEl = document.getElementById("temp");
  var humEl = document.getElementById("hum");
  var relayEl = document.getElementById("relay");
  var outcomeEl = document.getElementById("outcome");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var ws = new WebSocket(proto + "//" + location.host + "/api/live");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "disconnected");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        var st = msg.status;
        if (!st) return;
        if (st.sensor && st.sensor.last_outcome === "ok") {
          tempEl.textContent = st.sensor.temperature.toFixed(1) + " °C";
          humEl.textContent = st.sensor.humidity.toFixed(1) + " %";
        }
        if (outcomeEl && st.sensor) {
          outcomeEl.textContent = st.sensor.last_outcome;
          outcomeEl.className = st.sensor.last_outcome === "ok" ? "on" : "err";
        }
        if (st.relay) {
          relayEl.textContent = st.relay.state;
          relayEl.className = st.relay.state === "ON" ? "on" : "off";
        }
      } catch (e) {}
    };
  }

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
