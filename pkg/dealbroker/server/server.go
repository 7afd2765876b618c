package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/cors"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/cache"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/images"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/logging"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/validation"
)

// Store is the persistence the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, kind dal.Kind) ([]dal.Listing, error)
	Get(ctx context.Context, kind dal.Kind, id int64) (dal.Listing, error)
	Create(ctx context.Context, kind dal.Kind, l dal.Listing) (dal.Listing, error)
	Update(ctx context.Context, kind dal.Kind, l dal.Listing) (dal.Listing, error)
	Delete(ctx context.Context, kind dal.Kind, id int64) error
	SaveInquiry(ctx context.Context, inq dal.Inquiry) (int64, error)
	SaveLead(ctx context.Context, form dal.LeadForm) (int64, error)
}

// Options wires the server's collaborators. Store and Images are required.
type Options struct {
	Store  Store
	Images images.Uploader
	Cache  cache.Cache
	Logger *slog.Logger

	// AdminPasswordHash is a bcrypt hash; an empty hash rejects every login.
	AdminPasswordHash []byte

	AllowedOrigins []string

	// RateLimit is requests per second per client on public POST endpoints.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int

	// ImageDir is served under /images/ when set.
	ImageDir string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewHTTPServer returns a new HTTP server
func NewHTTPServer(addr string, opts Options) *http.Server {
	readTimeout, writeTimeout := opts.ReadTimeout, opts.WriteTimeout
	if readTimeout == 0 {
		readTimeout = 15 * time.Second
	}
	if writeTimeout == 0 {
		writeTimeout = 15 * time.Second
	}
	return &http.Server{
		Addr:         addr,
		Handler:      NewHandler(opts),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  time.Minute,
	}
}

// NewHandler builds the router with its middleware.
func NewHandler(opts Options) http.Handler {
	server := newHTTPServer(opts)

	standard := alice.New(server.recoverPanic, server.logRequest, secureHeaders)
	public := standard
	if server.limiter != nil {
		public = standard.Append(server.rateLimit)
	}

	r := mux.NewRouter()
	r.NotFoundHandler = standard.ThenFunc(server.notFound)

	collection := "/{collection:deals|demos}"
	for _, p := range []string{collection, collection + "/"} {
		r.Handle(p, standard.ThenFunc(server.GetListings)).Methods(http.MethodGet)
		r.Handle(p, standard.ThenFunc(server.CreateListing)).Methods(http.MethodPost)
	}
	item := collection + "/{id}"
	r.Handle(item, standard.ThenFunc(server.GetListing)).Methods(http.MethodGet)
	r.Handle(item, standard.ThenFunc(server.UpdateListing)).Methods(http.MethodPut)
	r.Handle(item, standard.ThenFunc(server.DeleteListing)).Methods(http.MethodDelete)

	r.Handle("/upload/{kind:deal|demo}-image/", standard.ThenFunc(server.UploadImage)).Methods(http.MethodPost)
	r.Handle("/upload/{kind:deal|demo}-image", standard.ThenFunc(server.UploadImage)).Methods(http.MethodPost)

	for _, p := range []string{"/vehicle_inquiry/", "/vehicle_inquiry"} {
		r.Handle(p, public.ThenFunc(server.SubmitInquiry)).Methods(http.MethodPost)
	}
	for _, p := range []string{"/submit_form/", "/submit_form"} {
		r.Handle(p, public.ThenFunc(server.SubmitForm)).Methods(http.MethodPost)
	}
	for _, p := range []string{"/admin/login", "/admin/login/"} {
		r.Handle(p, public.ThenFunc(server.AdminLogin)).Methods(http.MethodPost)
	}

	r.Handle("/healthz", standard.ThenFunc(server.Health)).Methods(http.MethodGet)

	if opts.ImageDir != "" {
		r.PathPrefix("/images/").Handler(standard.Then(http.StripPrefix("/images/", http.FileServer(http.Dir(opts.ImageDir)))))
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

type httpServer struct {
	store     Store
	images    images.Uploader
	cache     cache.Cache
	log       *slog.Logger
	validate  *validation.Validator
	adminHash []byte
	limiter   *keyedLimiter
}

func newHTTPServer(opts Options) *httpServer {
	s := &httpServer{
		store:     opts.Store,
		images:    opts.Images,
		cache:     opts.Cache,
		log:       opts.Logger,
		validate:  validation.New(),
		adminHash: opts.AdminPasswordHash,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = newKeyedLimiter(opts.RateLimit, burst)
	}
	return s
}
