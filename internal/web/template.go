package web

// feedTemplate is the newest-first comment feed. Deliberately a single
// dependency-free page so the dashboard works from curl or any browser.
const feedTemplate = `{{define "feed"}}<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>biliguard · {{.AccountName}}</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 64em; color: #222; }
header { margin-bottom: 1.5em; }
header .meta { color: #888; font-size: 0.9em; }
table { border-collapse: collapse; width: 100%; }
th, td { padding: 0.4em 0.6em; border-bottom: 1px solid #ddd; text-align: left; vertical-align: top; }
tr.removed { background: #fdecea; }
tr.flagged { background: #fff8e1; }
.status { font-size: 0.8em; color: #888; }
.sub { color: #888; padding-left: 1.5em; }
nav { margin-top: 1em; }
nav a { margin-right: 1em; }
</style>
</head>
<body>
<header>
<h1>{{.AccountName}} 评论监控</h1>
<p class="meta">共 {{.Total}} 条记录 · 已发现 {{.Removals}} 条被删除 · 最近刷新 {{.LastRefreshed}}</p>
</header>
<table>
<tr><th>时间</th><th>用户</th><th>内容</th><th>来源</th><th>状态</th></tr>
{{range .Rows}}
<tr class="{{if .Removed}}removed{{else if .Flagged}}flagged{{end}}">
<td>{{.Ctime}}</td>
<td>{{.Mname}}</td>
<td {{if .SubReply}}class="sub"{{end}}><a href="{{.Link}}">{{.Message}}</a></td>
<td>{{.KindName}} · <a href="{{.ObjectLink}}">{{.Oname}}</a></td>
<td class="status">{{.Status}}</td>
</tr>
{{end}}
</table>
<nav>
{{if .HasPrev}}<a href="/comments?page={{.PrevPage}}">上一页</a>{{end}}
第 {{.Page}} 页
{{if .HasNext}}<a href="/comments?page={{.NextPage}}">下一页</a>{{end}}
</nav>
</body>
</html>{{end}}`
