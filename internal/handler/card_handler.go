package handler

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-directory/internal/listing"
	"github.com/noah-isme/alumni-directory/internal/middleware"
	"github.com/noah-isme/alumni-directory/internal/models"
	appErrors "github.com/noah-isme/alumni-directory/pkg/errors"
	"github.com/noah-isme/alumni-directory/pkg/response"
)

// ListingScriptPath serves the browser half of the listing pipeline.
const ListingScriptPath = "/static/listing.js"

//go:embed templates/*.html static/listing.js
var assetFS embed.FS

var (
	homeTmpl      = template.Must(template.ParseFS(assetFS, "templates/home.html"))
	listingScript = mustAsset("static/listing.js")
)

func mustAsset(name string) []byte {
	raw, err := assetFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return raw
}

type cardService interface {
	Filter(ctx context.Context, req models.FilterRequest) ([]models.Card, bool, error)
	Options(ctx context.Context) (*models.FilterOptions, error)
	Profile(ctx context.Context, rawID string) (*models.Profile, bool, error)
}

type homeView struct {
	Options     *models.FilterOptions
	FilterPath  string
	ScriptPath  string
	EmptyNotice string
	ErrorNotice string
	Listing     template.HTML
}

// CardHandler serves the directory listing, the filter endpoint and profiles.
type CardHandler struct {
	cards    cardService
	renderer *listing.Renderer
	logger   *zap.Logger
}

// NewCardHandler constructs CardHandler.
func NewCardHandler(cards cardService, logger *zap.Logger) *CardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardHandler{cards: cards, renderer: listing.NewRenderer(&listing.MemoryContainer{}, logger), logger: logger}
}

// Filter godoc
// @Summary Filter directory cards
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body models.FilterRequest true "Current selection and search term"
// @Success 200 {array} models.Card
// @Router /filter_cards [post]
func (h *CardHandler) Filter(c *gin.Context) {
	var req models.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cards, cacheHit, err := h.cards.Filter(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Cache", cacheHeader(cacheHit))
	response.Raw(c, http.StatusOK, cards)
}

// Home godoc
// @Summary Directory page with the unfiltered listing
// @Tags Directory
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router /home [get]
func (h *CardHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	opts, err := h.cards.Options(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	cards, _, err := h.cards.Filter(ctx, models.FilterRequest{})
	if err != nil {
		response.Error(c, err)
		return
	}
	fragment, err := h.renderer.Fragment(cards)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render listing"))
		return
	}

	var buf bytes.Buffer
	if err := homeTmpl.Execute(&buf, homeView{
		Options:     opts,
		FilterPath:  listing.FilterPath,
		ScriptPath:  ListingScriptPath,
		EmptyNotice: listing.EmptyNotice,
		ErrorNotice: listing.ErrorNotice,
		Listing:     fragment,
	}); err != nil {
		h.logger.Error("render home page", zap.Error(err))
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render page"))
		return
	}
	response.HTML(c, http.StatusOK, buf.Bytes())
}

// Profile godoc
// @Summary Get a directory profile
// @Tags Directory
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profile/{id} [get]
func (h *CardHandler) Profile(c *gin.Context) {
	profile, cacheHit, err := h.cards.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, profile, middleware.ExtractMeta(c))
}

// Script serves the embedded listing client for the home page.
func (h *CardHandler) Script(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", listingScript)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
