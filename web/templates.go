package web

import (
	"html/template"
	"time"

	"github.com/amonks/tasklist/task"
)

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"formatTime": formatTime,
		"title": func(f task.Filter) string {
			switch f {
			case task.FilterPending:
				return "Pending"
			case task.FilterCompleted:
				return "Completed"
			default:
				return "All"
			}
		},
	}
	return template.Must(template.New("page").Funcs(funcs).Parse(pageTemplate))
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Tasks</title>
  <style>
    body {
      margin: 0;
      font-family: "Charter", "Georgia", serif;
      color: #2b2520;
      background: #fcfaf6;
    }
    header, main {
      max-width: 640px;
      margin: 0 auto;
      padding: 16px 24px;
    }
    header h1 {
      margin: 0 0 8px 0;
      font-size: 22px;
    }
    #stats span {
      margin-right: 12px;
      color: #5b5148;
    }
    .tabs {
      display: flex;
      gap: 8px;
      margin: 12px 0;
    }
    .tab {
      padding: 6px 12px;
      border-radius: 999px;
      text-decoration: none;
      color: #5b5148;
      border: 1px solid transparent;
    }
    .tab.active {
      color: #1d1712;
      border-color: #d1c6b6;
      background: #f5efe4;
      font-weight: 600;
    }
    .add-form {
      display: flex;
      gap: 8px;
    }
    .add-form input {
      flex: 1;
      padding: 8px;
    }
    .task-list {
      list-style: none;
      padding: 0;
    }
    .task {
      display: flex;
      align-items: center;
      gap: 8px;
      padding: 8px 0;
      border-bottom: 1px solid #eee4d6;
    }
    .task.completed .task-text {
      text-decoration: line-through;
      color: #8b8178;
    }
    .task-text {
      flex: 1;
    }
    .task-meta {
      font-size: 12px;
      color: #8b8178;
    }
    .empty {
      color: #8b8178;
      font-style: italic;
    }
    .toast {
      padding: 10px 14px;
      border-radius: 8px;
      margin-bottom: 8px;
    }
    .toast.success { background: #e4f2e2; }
    .toast.warning { background: #fbf0d5; }
    .toast.error { background: #f7dcd8; }
    #confirm-modal {
      position: fixed;
      inset: 0;
      background: rgba(30, 20, 10, 0.4);
      display: flex;
      align-items: center;
      justify-content: center;
    }
    #confirm-modal .dialog {
      background: #fff;
      padding: 20px 24px;
      border-radius: 12px;
    }
    form.inline {
      display: inline;
    }
  </style>
</head>
<body>
  <header>
    <h1>Tasks</h1>
    <div id="stats">
      <span class="total">{{.Stats.Total}} total</span>
      <span class="pending">{{.Stats.Pending}} pending</span>
      <span class="completed">{{.Stats.Completed}} completed</span>
    </div>
  </header>
  <main>
    {{range .Flashes}}
      <div class="toast {{.Kind}}" role="status">{{.Message}}</div>
    {{end}}
    <form class="add-form" method="post" action="/tasks/add">
      <input type="text" name="text" maxlength="{{.MaxLength}}" placeholder="What needs doing?" autofocus>
      <button type="submit">Add</button>
    </form>
    <nav class="tabs">
      {{range .Filters}}
        <a class="tab{{if eq . $.Filter}} active{{end}}" data-filter="{{.}}" href="/?filter={{.}}">{{title .}}</a>
      {{end}}
    </nav>
    <ul class="task-list">
      {{range .Tasks}}
        <li class="task{{if .Completed}} completed{{end}}" data-id="{{.ID}}">
          <form class="inline toggle" method="post" action="/tasks/toggle?id={{.ID}}">
            <button type="submit" aria-label="Toggle">{{if .Completed}}&#9745;{{else}}&#9744;{{end}}</button>
          </form>
          {{if eq .ID $.EditingID}}
            <form class="inline edit task-text" method="post" action="/tasks/edit?id={{.ID}}">
              <input type="text" name="text" value="{{.Text}}" maxlength="{{$.MaxLength}}">
              <button type="submit">Save</button>
              <a href="/">Cancel</a>
            </form>
          {{else}}
            <span class="task-text">{{.Text}}</span>
            <span class="task-meta">{{formatTime .CreatedAt}}</span>
            <a class="edit-link" href="/?edit={{.ID}}">Edit</a>
          {{end}}
          <form class="inline delete" method="post" action="/tasks/delete?id={{.ID}}">
            <button type="submit" aria-label="Delete">&times;</button>
          </form>
        </li>
      {{else}}
        <li class="empty">{{.EmptyMessage}}</li>
      {{end}}
    </ul>
  </main>
  {{if .Pending}}
    <div id="confirm-modal" role="dialog" aria-modal="true">
      <div class="dialog">
        <p>Delete "<span class="pending-text">{{.Pending.Text}}</span>"?</p>
        <form class="inline" method="post" action="/tasks/delete/confirm">
          <button type="submit" class="confirm">Delete</button>
        </form>
        <form class="inline" method="post" action="/tasks/delete/cancel">
          <button type="submit" class="cancel">Cancel</button>
        </form>
      </div>
    </div>
  {{end}}
</body>
</html>
`
