package public

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/storefinder/internal/public/application"
)

const defaultRequestTimeout = 5 * time.Second

// View names handed to the Renderer.
const (
	ViewStores    = "stores"
	ViewTags      = "tags"
	ViewStore     = "store"
	ViewTopStores = "topStores"
	ViewHearts    = "hearts"
	ViewEditStore = "editStore"
	ViewMap       = "map"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger    *zap.Logger
	discovery publicapp.DiscoveryService
	favorites publicapp.FavoritesService
	commands  publicapp.StoreCommandService
	reviews   publicapp.ReviewService
	renderer  common.Renderer
	flasher   common.Flasher
	timeout   time.Duration
}

// Config defines dependencies required by Handler.
// Renderer and Flasher default to the JSON renderer and header flasher.
type Config struct {
	Logger    *zap.Logger
	Discovery publicapp.DiscoveryService
	Favorites publicapp.FavoritesService
	Commands  publicapp.StoreCommandService
	Reviews   publicapp.ReviewService
	Renderer  common.Renderer
	Flasher   common.Flasher
	Timeout   time.Duration
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = common.JSONRenderer{Logger: logger}
	}
	flasher := cfg.Flasher
	if flasher == nil {
		flasher = common.HeaderFlasher{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Handler{
		logger:    logger,
		discovery: cfg.Discovery,
		favorites: cfg.Favorites,
		commands:  cfg.Commands,
		reviews:   cfg.Reviews,
		renderer:  renderer,
		flasher:   flasher,
		timeout:   timeout,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", h.storeListHandler())
	r.Get("/stores", h.storeListHandler())
	r.Get("/stores/page/{page}", h.storeListHandler())
	r.Get("/tags", h.tagListHandler())
	r.Get("/tags/{tag}", h.tagListHandler())
	r.Get("/store/{slug}", h.storeDetailHandler())
	r.Get("/top", h.topStoresHandler())
	r.Get("/map", h.mapPageHandler())
	r.Get("/api/search", h.searchHandler())
	r.Get("/api/stores/near", h.nearbyHandler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/add", h.addStoreFormHandler())
		r.Post("/add", h.createStoreHandler())
		r.Post("/add/{id}", h.updateStoreHandler())
		r.Get("/stores/{id}/edit", h.editStoreFormHandler())
		r.Post("/reviews/{id}", h.reviewCreateHandler())
		r.Get("/hearts", h.heartsHandler())
		r.Post("/api/stores/{id}/heart", h.heartToggleHandler())
		r.Get("/auth/verify", h.authVerifyHandler())
	})
}
