package web

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>SpeechBot — Web UI</title>
<style>
:root{--bg1:#0f172a;--bg2:#0b1220;--card:#0f172a;--accent:#60a5fa}
*{box-sizing:border-box;font-family:Inter,Segoe UI,Arial}
html,body{height:100%;margin:0;background:linear-gradient(135deg,var(--bg1),#04132b)}
.scene{min-height:100vh;display:flex;align-items:center;justify-content:center;padding:40px}
.card{width:100%;max-width:980px;background:linear-gradient(180deg,rgba(255,255,255,0.03),rgba(255,255,255,0.01));border-radius:16px;padding:28px;box-shadow:0 10px 40px rgba(2,6,23,0.6);position:relative;overflow:hidden}
.header{display:flex;align-items:center;gap:16px}
.logo{width:56px;height:56px;border-radius:12px;background:linear-gradient(135deg,#7c3aed,#60a5fa);display:flex;align-items:center;justify-content:center;color:white;font-weight:700}
.title{color:#e6eef8;font-size:20px}
.instructions{color:#9fb2d9;margin-top:8px}
.form{display:grid;grid-template-columns:1fr 360px;gap:18px;margin-top:20px}
.panel{background:rgba(255,255,255,0.02);padding:16px;border-radius:12px;min-height:220px}
.controls{display:flex;flex-direction:column;gap:10px}
.input,button{width:100%;padding:12px;border-radius:10px;border:1px solid rgba(255,255,255,0.06);background:transparent;color:#dbeafe}
.small{font-size:13px;color:#9fb2d9}
.btn{background:linear-gradient(90deg,#7c3aed,#60a5fa);border:none;padding:12px;border-radius:10px;color:white;font-weight:600;cursor:pointer}
.result{white-space:pre-wrap;max-height:420px;overflow:auto;padding:12px;background:rgba(0,0,0,0.2);border-radius:8px;color:#e6eef8}
@media(max-width:920px){.form{grid-template-columns:1fr}}
</style>
</head>
<body>
<div class="scene">
<div class="card">
<div class="header">
<div class="logo">SB</div>
<div>
<div class="title">SpeechBot — Web Interface</div>
<div class="instructions">Upload audio, paste your Gemini key, then click Transcribe.</div>
</div>
</div>
<div class="form">
<div class="panel">
<div class="controls">
<label class="small">Audio file (max {{max_mb}}MB)</label>
<input id="afile" type="file" accept="audio/*,video/*" />
<label class="small">Gemini API Key</label>
<input id="akey" class="input" placeholder="AIza..." />
<button id="trans" class="btn">Transcribe</button>
<div id="status" class="small" style="margin-top:8px"></div>
</div>
</div>
<div class="panel">
<div style="font-size:14px;color:#9fb2d9">Output</div>
<div id="out" class="result" style="margin-top:12px">No transcription yet</div>
</div>
</div>
</div>
</div>
<script>
const btn = document.getElementById("trans")
const infile = document.getElementById("afile")
const keyin = document.getElementById("akey")
const out = document.getElementById("out")
const status = document.getElementById("status")
btn.onclick = async () => {
  if(!infile.files.length){status.textContent="Choose a file";return}
  const f = infile.files[0]
  if(f.size > {{max_bytes}}){status.textContent="File too large";return}
  const k = keyin.value.trim()
  if(!k){status.textContent="Provide Gemini key";return}
  status.textContent="Uploading..."
  out.textContent=""
  const fd = new FormData()
  fd.append("file", f)
  fd.append("key", k)
  try{
    const r = await fetch("/transcribe", {method:"POST", body:fd})
    const j = await r.json()
    if(r.ok){
      out.textContent = j.text || "No text returned"
      status.textContent = "Done"
    } else {
      out.textContent = j.error || "Error"
      status.textContent = "Failed"
    }
  } catch(e){
    out.textContent = String(e)
    status.textContent = "Error"
  }
}
</script>
</body>
</html>`
