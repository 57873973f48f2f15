package web

import (
	"bytes"
	"html/template"

	"github.com/jaminalder/tictactoe-engine/internal/app"
	"github.com/jaminalder/tictactoe-engine/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

var modes = []domain.Mode{domain.TwoPlayer, domain.EasyAI, domain.HardAI}

func funcs() template.FuncMap {
	return template.FuncMap{
		"modes": func() []domain.Mode { return modes },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.grid{display:grid;grid-template-columns:repeat(3,4rem);gap:.25rem}
.grid button{width:4rem;height:4rem;font-size:2rem}
.win{background:#c8f7c5}.dim{opacity:.5}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic-Tac-Toe</h1>
{{range modes}}<form action="/game" method="post"><input type="hidden" name="mode" value="{{.}}"><button>{{.Label}}</button></form>
{{end}}`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div sse-swap="board" hx-swap="outerHTML" hx-target="#board">{{template "board" .Board}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if name == "" {
		err = t.Execute(&buf, data)
	} else {
		err = t.ExecuteTemplate(&buf, name, data)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const boardTemplate = `
<div id="board" data-version="{{.Version}}">
  <p class="status">{{.Status}}</p>
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="grid">
    {{range .Cells}}
    <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
      <input type="hidden" name="cell" value="{{.Index}}">
      <button type="submit"{{if .Class}} class="{{.Class}}"{{end}}{{if .Disabled}} disabled{{end}}>{{.Mark}}</button>
    </form>
    {{end}}
  </div>
  <div class="modes">
    {{range modes}}
    <form hx-post="/game/{{$.ID}}/restart" hx-target="#board" hx-swap="outerHTML" method="post">
      <input type="hidden" name="mode" value="{{.}}">
      <button type="submit"{{if eq . $.Mode}} class="active"{{end}}>{{.Label}}</button>
    </form>
    {{end}}
    <form hx-post="/game/{{$.ID}}/restart" hx-target="#board" hx-swap="outerHTML" method="post">
      <button type="submit">Restart</button>
    </form>
  </div>
</div>
`

type cellView struct {
	Index    int
	Mark     string
	Class    string
	Disabled bool
}

type boardView struct {
	ID      string
	Version uint64
	Status  string
	Error   string
	Mode    domain.Mode
	Cells   []cellView
}

type pageData struct {
	ID    string
	Board boardView
}

// newBoardView prepares a game for the board fragment. Cells are disabled
// once taken, after the game ends and while the computer is to move.
func newBoardView(gs app.GameState, errMsg string) boardView {
	st := gs.State
	locked := st.Over || (st.Mode.Computer() != domain.Empty && st.Current == st.Mode.Computer())

	v := boardView{
		ID:      gs.ID,
		Version: st.Version,
		Status:  gs.Status(),
		Error:   errMsg,
		Mode:    st.Mode,
		Cells:   make([]cellView, len(st.Board)),
	}
	for i, c := range st.Board {
		cv := cellView{Index: i, Mark: c.String(), Disabled: locked || c != domain.Empty}
		if st.Result.Status == domain.Win {
			if st.Result.Contains(i) {
				cv.Class = "win"
			} else {
				cv.Class = "dim"
			}
		}
		v.Cells[i] = cv
	}
	return v
}
