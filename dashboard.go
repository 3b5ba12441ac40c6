package main

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>octomcp</title>
<style>
  body { font-family: ui-monospace, monospace; margin: 2rem; background: #0d1117; color: #c9d1d9; }
  h1 { font-size: 1.2rem; }
  h2 { font-size: 1rem; margin-top: 1.5rem; }
  table { border-collapse: collapse; margin-top: .5rem; }
  td, th { border: 1px solid #30363d; padding: .25rem .75rem; text-align: left; }
  th { background: #161b22; }
  .totals span { margin-right: 2rem; }
</style>
</head>
<body>
<h1>octomcp analytics</h1>
<div class="totals">
  <span>requests: <b id="total-requests">-</b></span>
  <span>tool calls: <b id="tool-calls">-</b></span>
  <span>uptime: <b id="uptime">-</b></span>
</div>
<div id="sections"></div>
<h2>recent tool calls</h2>
<table id="recent"><thead><tr><th>time</th><th>tool</th><th>client</th><th>ip</th></tr></thead><tbody></tbody></table>
<script>
function renderTable(title, entries) {
  if (!entries || entries.length === 0) return '';
  let rows = entries.map(e => '<tr><td>' + e.key + '</td><td>' + e.count + '</td></tr>').join('');
  return '<h2>' + title + '</h2><table><thead><tr><th>key</th><th>count</th></tr></thead><tbody>' + rows + '</tbody></table>';
}
async function refresh() {
  const snap = await (await fetch('analytics')).json();
  document.getElementById('total-requests').textContent = snap.totalRequests;
  document.getElementById('tool-calls').textContent = snap.toolCalls;
  document.getElementById('uptime').textContent = snap.uptimeSeconds + 's';
  document.getElementById('sections').innerHTML =
    renderTable('by tool', snap.byTool) +
    renderTable('by path', snap.byPath) +
    renderTable('by method', snap.byMethod) +
    renderTable('by client', snap.byUserAgent) +
    renderTable('by hour (UTC)', snap.byHour);
  const recent = await (await fetch('analytics/recent')).json();
  const tbody = document.querySelector('#recent tbody');
  tbody.innerHTML = (recent.toolCalls || []).map(c =>
    '<tr><td>' + c.timestamp + '</td><td>' + c.tool + '</td><td>' + c.userAgent + '</td><td>' + c.clientIp + '</td></tr>'
  ).join('');
}
refresh();
setInterval(refresh, 5000);
</script>
</body>
</html>
`
