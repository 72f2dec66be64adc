// Package page owns the HTML contract shared by the chore server and its
// clients: the add form, the task list and the empty-state placeholder.
package page

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Makepad-fr/chores/internal/model"
)

// EmptyText is shown by the placeholder entry when the list has no tasks.
const EmptyText = "No chores yet. Add one above!"

// ErrMissingElement is returned when a required element is absent from a page.
var ErrMissingElement = errors.New("missing page element")

// Variant selects which title inputs the add form carries.
type Variant int

const (
	// Basic forms have a single #title input.
	Basic Variant = iota
	// Extended forms have #chore-title, #chore-date and #chore-time.
	Extended
)

func (v Variant) String() string {
	if v == Extended {
		return "extended"
	}
	return "basic"
}

// ParseVariant maps a config value to a Variant; unknown values are Basic.
func ParseVariant(s string) Variant {
	if strings.EqualFold(strings.TrimSpace(s), "extended") {
		return Extended
	}
	return Basic
}

// View is everything the index page needs.
type View struct {
	Action  string
	Variant Variant
	Tasks   []model.Task
}

var tmpl = template.Must(template.New("page").Parse(`{{define "list"}}<ul id="task-list">
{{- range .}}
  <li class="task" data-id="{{.ID}}" data-completed="{{.Completed.Attr}}"><label><input type="checkbox" class="toggle"{{if .Completed}} checked{{end}}><span class="title">{{.Title}}</span></label><button class="delete" aria-label="Delete">✕</button></li>
{{- else}}
  <li class="empty">` + EmptyText + `</li>
{{- end}}
</ul>{{end}}
{{define "index"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Chores</title>
</head>
<body>
<form id="add-form" action="{{.Action}}" method="post">
{{- if eq .Variant 1}}
  <input id="chore-title" name="title" type="text" placeholder="New chore" autocomplete="off">
  <input id="chore-date" name="date" type="date">
  <input id="chore-time" name="time" type="time">
{{- else}}
  <input id="title" name="title" type="text" placeholder="New chore" autocomplete="off">
{{- end}}
  <button type="submit">Add</button>
</form>
{{template "list" .Tasks}}
</body>
</html>
{{end}}`))

// Render writes the full index page.
func Render(w io.Writer, v View) error {
	if v.Action == "" {
		v.Action = "/add"
	}
	return tmpl.ExecuteTemplate(w, "index", v)
}

// RenderList writes only the #task-list element. The placeholder is emitted
// iff tasks is empty.
func RenderList(w io.Writer, tasks []model.Task) error {
	return tmpl.ExecuteTemplate(w, "list", tasks)
}

// Document is what a client learns from a served page.
type Document struct {
	Action  string
	Variant Variant
	Tasks   []model.Task
	// NoTitleInput is set when the form has neither #title nor #chore-title.
	// Such a page still lists tasks; only submitting is impossible.
	NoTitleInput bool
}

// Parse locates the add form, its title input and the task list. A missing
// form or list is an error; a missing title input is reported in the Document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	form := doc.Find("#add-form").First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("%w: #add-form", ErrMissingElement)
	}
	list := doc.Find("#task-list").First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("%w: #task-list", ErrMissingElement)
	}

	out := &Document{}
	out.Action, _ = form.Attr("action")
	switch {
	case form.Find("#chore-title").Length() > 0:
		out.Variant = Extended
	case form.Find("#title").Length() > 0:
		out.Variant = Basic
	default:
		out.NoTitleInput = true
	}

	list.Find("li.task").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-id")
		done, _ := s.Attr("data-completed")
		out.Tasks = append(out.Tasks, model.Task{
			ID:        model.TaskID(id),
			Title:     strings.TrimSpace(s.Find(".title").First().Text()),
			Completed: model.Flag(done == "1"),
		})
	})
	return out, nil
}
