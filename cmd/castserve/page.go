package main

// viewerPage draws each frame's batches on a canvas once the frame message
// arrives. Batches from frames that never complete are discarded.
const viewerPage = `<!doctype html>
<html>
<head><title>castserve</title>
<style>body{background:#111;color:#ccc;font:12px monospace;margin:8px}canvas{background:#000;image-rendering:pixelated}</style>
</head>
<body>
<canvas id="c"></canvas>
<div id="s">connecting</div>
<script>
const cv = document.getElementById("c"), ctx = cv.getContext("2d"), status = document.getElementById("s");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
let frame = 0, pending = [];
const rgb = (c, i) => "rgb(" + [0, 1, 2].map(k => Math.round(Math.min(1, Math.max(0, c[i + k])) * 255)).join(",") + ")";
function draw(b) {
  const sx = b.region.w / b.surface.w, sy = b.region.h / b.surface.h;
  const px = i => b.region.x + b.vertices[i] * sx, py = i => b.region.y + b.vertices[i + 1] * sy;
  const step = b.primitive === "lines" ? 2 : 3;
  for (let v = 0; v + step <= b.vertices.length / 2; v += step) {
    ctx.beginPath();
    ctx.moveTo(px(v * 2), py(v * 2));
    for (let k = 1; k < step; k++) ctx.lineTo(px((v + k) * 2), py((v + k) * 2));
    if (step === 3) { ctx.fillStyle = rgb(b.colors, v * 3); ctx.fill(); }
    else { ctx.strokeStyle = rgb(b.colors, v * 3); ctx.stroke(); }
  }
}
ws.onmessage = e => {
  const m = JSON.parse(e.data);
  if (m.frame !== frame) { frame = m.frame; pending = []; }
  if (m.type === "batch") {
    if (cv.width !== m.surface.w) { cv.width = m.surface.w; cv.height = m.surface.h; }
    pending.push(m);
    return;
  }
  ctx.clearRect(0, 0, cv.width, cv.height);
  pending.forEach(draw);
  pending = [];
  const s = m.stats;
  status.textContent = "frame " + m.frame + "  hits " + s.hits + "/" + s.columns + "  flushes " + s.flushes + "  vertices " + s.vertices + "  (arrows move, space spins)";
};
ws.onclose = () => { status.textContent = "disconnected"; };
const keys = {ArrowUp: "forward", ArrowDown: "back", ArrowLeft: "left", ArrowRight: "right", " ": "spin"};
document.addEventListener("keydown", e => {
  const action = keys[e.key];
  if (action && ws.readyState === 1) { ws.send(JSON.stringify({type: "key", action})); e.preventDefault(); }
});
</script>
</body>
</html>
`
