package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	jwt_service "taskmanager/JWT"
	"taskmanager/store"
)

type Options struct {
	Store       store.Store
	Tokens      *jwt_service.Service // nil disables auth
	StaticDir   string
	CORSOrigins []string
	Logger      *log.Logger
}

// NewRouter mounts the API under /api and static files at /.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := opts.Store
	auth := func(h HandlerFunc) http.HandlerFunc {
		return RequireAuth(opts.Tokens, WithStore(h, s))
	}

	routes := []route{
		{"/health", map[string]http.HandlerFunc{
			http.MethodGet: WithStore(HealthHandler, s),
		}},
		{"/tasks", map[string]http.HandlerFunc{
			http.MethodGet:  auth(MyTasksHandler),
			http.MethodPost: auth(CreateTaskHandler),
		}},
		{"/tasks/{id}", map[string]http.HandlerFunc{
			http.MethodGet:    auth(TaskInfo),
			http.MethodPut:    auth(UpdateTaskHandler),
			http.MethodDelete: auth(DeleteTaskHandler),
		}},
		{"/tasks/{id}/complete", map[string]http.HandlerFunc{
			http.MethodPatch: auth(ChangeStatus),
		}},
	}
	if opts.Tokens != nil {
		routes = append(routes,
			route{"/auth/register", map[string]http.HandlerFunc{
				http.MethodPost: WithStore(RegisterHandler(opts.Tokens), s),
			}},
			route{"/auth/login", map[string]http.HandlerFunc{
				http.MethodPost: WithStore(LoginHandler(opts.Tokens), s),
			}},
			route{"/auth/me", map[string]http.HandlerFunc{
				http.MethodGet: auth(CheckAuthHandler(opts.Tokens)),
			}},
		)
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").MatcherFunc(apiSegment).Subrouter()
	for _, rt := range routes {
		allowed := make([]string, 0, len(rt.methods))
		for method, h := range rt.methods {
			api.HandleFunc(rt.path, h).Methods(method)
			allowed = append(allowed, method)
		}
		// Registered last so it only sees methods the routes above rejected.
		api.HandleFunc(rt.path, methodNotAllowed(allowed))
	}

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})

	if opts.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(opts.StaticDir)))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})

	return RequestLogger(logger)(Recoverer(c.Handler(r)))
}

type route struct {
	path    string
	methods map[string]http.HandlerFunc
}

// apiSegment keeps /apidocs.html and friends on the static file server.
func apiSegment(r *http.Request, _ *mux.RouteMatch) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

func methodNotAllowed(allowed []string) http.HandlerFunc {
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
