package listing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-directory/internal/models"
)

const (
	// EmptyNotice is shown when the filter matched nothing.
	EmptyNotice = "No results found."
	// ErrorNotice is shown for every failed dispatch.
	ErrorNotice = "There was an error processing the request."

	defaultImageMIME = "image/jpeg"
)

const listingTemplates = `
{{- define "empty"}}<p class="listing-notice">{{.}}</p>{{end -}}
{{- define "error"}}<p class="listing-notice listing-error">{{.}}</p>{{end -}}
{{- define "cards"}}{{range .}}<div class="col"><div class="card h-100">
{{- if .Image}}<img src="{{.Image}}" class="card-img-top img-fluid d-block w-100" style="height: 300px" alt="{{.Name}}" />{{end -}}
<div class="card-body"><h5 class="card-title">{{.Name}}</h5><p class="card-text">{{.Summary}}</p></div>
{{- if .ProfileURL}}<a href="{{.ProfileURL}}" class="btn btn-dark mb-1">View Profile</a>{{end}}</div></div>{{end}}{{end -}}
`

var listingTmpl = template.Must(template.New("listing").Parse(listingTemplates))

// Container is the element the renderer owns. Every call fully replaces its contents.
type Container interface {
	Replace(content template.HTML)
}

// MemoryContainer keeps the latest contents in memory.
type MemoryContainer struct {
	mu       sync.RWMutex
	content  template.HTML
	replaced int
}

// Replace implements Container.
func (m *MemoryContainer) Replace(content template.HTML) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = content
	m.replaced++
}

// Content returns the current markup.
func (m *MemoryContainer) Content() template.HTML {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.content
}

// Replaced returns how many times the contents were replaced.
func (m *MemoryContainer) Replaced() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.replaced
}

type cardView struct {
	Name       string
	Summary    string
	ProfileURL string
	Image      template.URL
}

// Renderer turns dispatch outcomes into container markup.
type Renderer struct {
	container Container
	logger    *zap.Logger
}

// NewRenderer constructs a renderer writing into container. A nil container
// is replaced by a MemoryContainer.
func NewRenderer(container Container, logger *zap.Logger) *Renderer {
	if container == nil {
		container = &MemoryContainer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{container: container, logger: logger}
}

// Apply routes an outcome to Populate or RenderError.
func (r *Renderer) Apply(o Outcome) {
	if o.Err != nil {
		r.RenderError(o.Err)
		return
	}
	r.Populate(o.Cards)
}

// Populate renders the success payload.
func (r *Renderer) Populate(cards []models.Card) {
	if len(cards) == 0 {
		r.RenderEmpty()
		return
	}
	r.RenderCards(cards)
}

// RenderEmpty replaces the container with the no-results notice.
func (r *Renderer) RenderEmpty() {
	r.replace("empty", EmptyNotice)
}

// RenderCards replaces the container with one block per card in the given order.
func (r *Renderer) RenderCards(cards []models.Card) {
	if len(cards) == 0 {
		r.RenderEmpty()
		return
	}
	r.replace("cards", r.views(cards))
}

// RenderError replaces the container with the generic error notice and logs the cause.
func (r *Renderer) RenderError(err error) {
	r.logger.Error("filter request failed",
		zap.String("kind", FailureKind(err)),
		zap.Error(err),
	)
	r.replace("error", ErrorNotice)
}

// Fragment renders the listing markup for cards without touching the container.
func (r *Renderer) Fragment(cards []models.Card) (template.HTML, error) {
	var buf bytes.Buffer
	var err error
	if len(cards) == 0 {
		err = listingTmpl.ExecuteTemplate(&buf, "empty", EmptyNotice)
	} else {
		err = listingTmpl.ExecuteTemplate(&buf, "cards", r.views(cards))
	}
	if err != nil {
		return "", fmt.Errorf("render listing: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

func (r *Renderer) replace(name string, data interface{}) {
	var buf bytes.Buffer
	if err := listingTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("render listing", zap.String("template", name), zap.Error(err))
		buf.Reset()
		_ = listingTmpl.ExecuteTemplate(&buf, "error", ErrorNotice)
	}
	r.container.Replace(template.HTML(buf.String())) //nolint:gosec // produced by html/template
}

func (r *Renderer) views(cards []models.Card) []cardView {
	views := make([]cardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, cardView{
			Name:       card.Name.String(),
			Summary:    fmt.Sprintf("%s - %s (%s)", card.Course, card.Department, card.PassingYear),
			ProfileURL: ProfileURL(card.ID.String()),
			Image:      r.imageURL(card),
		})
	}
	return views
}

func (r *Renderer) imageURL(card models.Card) template.URL {
	encoded := strings.TrimSpace(card.UserImage.String())
	if encoded == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		r.logger.Warn("dropping undecodable card image", zap.String("id", card.ID.String()), zap.Error(err))
		return ""
	}
	mime := http.DetectContentType(decoded)
	if !strings.HasPrefix(mime, "image/") {
		mime = defaultImageMIME
	}
	// Re-encoding keeps the URL within the base64 alphabet.
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(decoded)) //nolint:gosec
}

// ProfileURL returns the profile link for a card identifier, or "" when the
// identifier cannot form a single path segment. Browsers resolve "." and ".."
// as dot segments, so those ids get no link.
func ProfileURL(id string) string {
	switch id {
	case "", ".", "..":
		return ""
	}
	return "/profile/" + url.PathEscape(id)
}
