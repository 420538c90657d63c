package dashboard

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/store"
	"github.com/crosswatch/dashd/internal/watch"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Pages renders the browser-facing HTML views. The JSON API carries the
// same data; these are the human-friendly skins on top of it.
type Pages struct {
	store *store.Store
	watch *watch.Poller
	tmpl  *template.Template
}

func NewPages(st *store.Store, w *watch.Poller) (*Pages, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Pages{store: st, watch: w, tmpl: tmpl}, nil
}

type logsPage struct {
	Connected bool
	Blocks    []template.HTML
}

func (p *Pages) Logs(c *gin.Context) {
	p.store.Bus().TabChanged.Publish(store.TabChanged{Tab: "logs"})

	blocks := p.store.Blocks()
	page := logsPage{
		Connected: p.store.StreamStates()["logs"],
		Blocks:    make([]template.HTML, 0, len(blocks)),
	}
	for _, b := range blocks {
		page.Blocks = append(page.Blocks, template.HTML(b.HTML()))
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := p.tmpl.ExecuteTemplate(c.Writer, "logs.html", page); err != nil {
		c.Error(err)
	}
}

type watchPage struct {
	Active   bool
	Item     *watchItem
	Progress int
}

type watchItem struct {
	Title   string
	Year    int
	Kind    string
	Show    string
	Season  int
	Episode int
	User    string
	Paused  bool
}

func (p *Pages) Watch(c *gin.Context) {
	p.store.Bus().TabChanged.Publish(store.TabChanged{Tab: "watch"})

	page := watchPage{}
	if np := p.watch.Current(); np != nil {
		page.Active = true
		page.Progress = watch.Progress(np)
		page.Item = &watchItem{
			Title:   np.Title,
			Year:    np.Year,
			Kind:    np.Kind,
			Show:    np.Show,
			Season:  np.Season,
			Episode: np.Episode,
			User:    np.User,
			Paused:  np.Paused,
		}
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := p.tmpl.ExecuteTemplate(c.Writer, "watch.html", page); err != nil {
		c.Error(err)
	}
}
