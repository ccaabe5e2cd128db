package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/noah-isme/alumni-directory/internal/listing"
	"github.com/noah-isme/alumni-directory/internal/middleware"
	"github.com/noah-isme/alumni-directory/internal/models"
	appErrors "github.com/noah-isme/alumni-directory/pkg/errors"
)

type cardServiceStub struct {
	cards    []models.Card
	options  *models.FilterOptions
	profile  *models.Profile
	hit      bool
	err      error
	received []models.FilterRequest
}

func (s *cardServiceStub) Filter(ctx context.Context, req models.FilterRequest) ([]models.Card, bool, error) {
	s.received = append(s.received, req)
	if s.err != nil {
		return nil, false, s.err
	}
	return s.cards, s.hit, nil
}

func (s *cardServiceStub) Options(ctx context.Context) (*models.FilterOptions, error) {
	if s.options == nil {
		return &models.FilterOptions{}, nil
	}
	return s.options, nil
}

func (s *cardServiceStub) Profile(ctx context.Context, rawID string) (*models.Profile, bool, error) {
	if s.profile == nil || rawID != "42" {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}
	return s.profile, s.hit, nil
}

func newCardRouter(svc *cardServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCardHandler(svc, nil)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.POST("/filter_cards", h.Filter)
	r.GET("/home", h.Home)
	r.GET("/profile/:id", h.Profile)
	r.GET(ListingScriptPath, h.Script)
	return r
}

func TestCardHandlerFilterReturnsBareArray(t *testing.T) {
	svc := &cardServiceStub{cards: []models.Card{{ID: "42", Name: "Ali K.", Course: "B.Tech", Department: "CS", PassingYear: "2020"}}, hit: true}
	r := newCardRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/filter_cards", strings.NewReader(`{"department":"CS","course":"","year_of_passing":"2020","search_term":"ali"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `[{"id":"42","name":"Ali K.","course":"B.Tech","department":"CS","passing_year":"2020","user_image":""}]`, w.Body.String())
	require.Len(t, svc.received, 1)
	assert.Equal(t, models.FilterRequest{Department: "CS", YearOfPassing: "2020", SearchTerm: "ali"}, svc.received[0])
}

func TestCardHandlerFilterEmptyResult(t *testing.T) {
	r := newCardRouter(&cardServiceStub{cards: []models.Card{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/filter_cards", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "[]", w.Body.String())
}

func TestCardHandlerFilterMalformedBody(t *testing.T) {
	svc := &cardServiceStub{}
	r := newCardRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/filter_cards", strings.NewReader(`{"department":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrValidation.Code)
	assert.Empty(t, svc.received)
}

func TestCardHandlerFilterServiceError(t *testing.T) {
	r := newCardRouter(&cardServiceStub{err: appErrors.Clone(appErrors.ErrInternal, "failed to filter cards")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/filter_cards", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCardHandlerHomeRendersPage(t *testing.T) {
	svc := &cardServiceStub{
		cards:   []models.Card{{ID: "7", Name: "<b>Bea</b>", Course: "MBA", Department: "MGMT", PassingYear: "2019"}},
		options: &models.FilterOptions{Departments: []string{"CS", "MGMT"}, Courses: []string{"MBA"}, PassingYears: []string{"2019"}},
	}
	r := newCardRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, `class="dropdown-item department-item" href="#" data-value="MGMT"`)
	assert.Contains(t, body, `class="dropdown-item year-item" href="#" data-value="2019"`)
	assert.Contains(t, body, `data-endpoint="/filter_cards"`)
	assert.Contains(t, body, `href="/profile/7"`)
	assert.Contains(t, body, "&lt;b&gt;Bea&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Bea</b>")
	require.Len(t, svc.received, 1)
	assert.Equal(t, models.FilterRequest{}, svc.received[0])
}

func TestCardHandlerHomeEmptyListing(t *testing.T) {
	r := newCardRouter(&cardServiceStub{cards: []models.Card{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), listing.EmptyNotice)
}

func TestCardHandlerProfile(t *testing.T) {
	dept := "CS"
	r := newCardRouter(&cardServiceStub{profile: &models.Profile{ID: 42, Name: "Ali K.", Department: &dept}, hit: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data models.Profile         `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Ali K.", env.Data.Name)
	assert.Equal(t, true, env.Meta["cache_hit"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile/abc", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatcherAgainstFilterHandler(t *testing.T) {
	svc := &cardServiceStub{cards: []models.Card{
		{ID: "1", Name: "Ali K.", Course: "B.Tech", Department: "CS", PassingYear: "2020"},
		{ID: "2", Name: "Bea", Course: "B.Tech", Department: "CS", PassingYear: "2020"},
	}}
	srv := httptest.NewServer(newCardRouter(svc))
	t.Cleanup(srv.Close)

	container := &listing.MemoryContainer{}
	page := listing.NewPage(listing.NewStore(), listing.NewDispatcher(srv.URL), listing.NewRenderer(container, nil), nil)
	require.NoError(t, page.Activate("department-item", "CS"))
	page.Input().Set("ali")

	outcome := <-page.Search(context.Background())
	require.NoError(t, outcome.Err)
	assert.Len(t, outcome.Cards, 2)
	assert.Contains(t, string(container.Content()), "B.Tech - CS (2020)")
	require.Len(t, svc.received, 1)
	assert.Equal(t, models.FilterRequest{Department: "CS", SearchTerm: "ali"}, svc.received[0])
}

func TestCardHandlerHomeLoadsListingScript(t *testing.T) {
	r := newCardRouter(&cardServiceStub{cards: []models.Card{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home", nil))
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := html.Parse(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	var scripts []string
	var container map[string]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := map[string]string{}
			for _, a := range n.Attr {
				attrs[a.Key] = a.Val
			}
			if n.Data == "script" {
				scripts = append(scripts, attrs["src"])
			}
			if attrs["id"] == "cardsContainer" {
				container = attrs
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	assert.Equal(t, []string{ListingScriptPath}, scripts)
	require.NotNil(t, container)
	assert.Equal(t, listing.EmptyNotice, container["data-empty-notice"])
	assert.Equal(t, listing.ErrorNotice, container["data-error-notice"])
	assert.Equal(t, 3, strings.Count(w.Body.String(), "data-clear"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ListingScriptPath, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")
	body := w.Body.String()
	assert.Contains(t, body, "#cardsContainer")
	assert.Contains(t, body, "textContent")
	assert.Contains(t, body, "encodeURIComponent")
	assert.NotContains(t, body, "innerHTML")
}
