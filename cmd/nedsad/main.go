/*
Nedsad starts an HTTP daemon that compiles and evaluates nedsascript
programs on behalf of remote clients, and records every invocation in an
audit log.

Usage:

	nedsad [flags]

If a JWT signing secret is not given via config file, one is generated at
startup. Tokens issued under a generated secret all become invalid as soon
as the daemon shuts down, which is suitable for testing but not production.

The flags are:

	-v, --version
		Give the current version of nedsad and then exit.

	-c, --config FILE
		Read configuration from the given TOML file. See internal/config for
		the fields recognized (listen address, audit DB path, JWT secret,
		decider estimate logging).
*/
package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dekarrin/nedsa"
	"github.com/dekarrin/nedsa/internal/audit"
	"github.com/dekarrin/nedsa/internal/automaton"
	"github.com/dekarrin/nedsa/internal/config"
	"github.com/dekarrin/nedsa/internal/respond"
	"github.com/dekarrin/nedsa/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of nedsad and then exit.")
	flagConfig  = pflag.StringP("config", "c", "", "Read configuration from the given TOML file.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (nedsa v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	cfg := config.Default()
	if *flagConfig != "" {
		var err error
		cfg, err = config.Load(*flagConfig)
		if err != nil {
			log.Fatalf("FATAL could not read config: %s", err.Error())
		}
	}

	secret := []byte(cfg.Daemon.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 64)
		if _, err := rand.Read(secret); err != nil {
			log.Fatalf("FATAL could not generate token secret: %s", err.Error())
		}
		log.Printf("WARN  using generated token secret; all tokens issued will become invalid at shutdown")
	}

	adminToken, adminHash, err := generateAdminToken()
	if err != nil {
		log.Fatalf("FATAL could not generate admin bootstrap token: %s", err.Error())
	}
	log.Printf("INFO  admin bootstrap token (store this now, it will not be shown again): %s", adminToken)

	store, err := audit.Open(cfg.Daemon.AuditDBPath)
	if err != nil {
		log.Fatalf("FATAL could not open audit log: %s", err.Error())
	}
	defer store.Close()

	var estimateLogger *log.Logger
	if cfg.LogEstimate {
		estimateLogger = log.New(os.Stderr, "", log.LstdFlags)
	}

	srv := &daemon{
		store:          store,
		secret:         secret,
		adminTokenHash: adminHash,
		logger:         estimateLogger,
	}

	router := srv.routes()

	log.Printf("INFO  starting nedsad %s on %s...", version.ServerCurrent, cfg.Daemon.ListenAddr)
	if err := http.ListenAndServe(cfg.Daemon.ListenAddr, router); err != nil {
		log.Fatalf("FATAL server stopped: %s", err.Error())
	}
}

type daemon struct {
	store          *audit.Store
	secret         []byte
	adminTokenHash []byte
	logger         *log.Logger
}

// generateAdminToken creates a random bootstrap credential and returns both
// the raw token (shown once, on startup) and its bcrypt hash, the same
// scheme used for user passwords applied
// here to the daemon's own standing admin credential rather than a stored
// user record.
func generateAdminToken() (token string, hash []byte, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, err
	}
	token = base64.RawURLEncoding.EncodeToString(raw)

	hash, err = bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	return token, hash, nil
}

func (d *daemon) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(d.recoverMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(d.requireAuth)
		r.Post("/v1/run", d.handleInvoke(audit.KindRun))
		r.Post("/v1/decide", d.handleInvoke(audit.KindDecide))
		r.Get("/v1/runs", d.handleListRuns)
		r.Get("/v1/runs/{id}", d.handleGetRun)
	})

	return r
}

// recoverMiddleware converts any panic surfaced by a handler into a 500
// response instead of crashing the daemon.
func (d *daemon) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if panicErr := recover(); panicErr != nil {
				respond.InternalServerError("panic: %v", panicErr).WriteResponse(w, req, d.logger)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// requireAuth validates a Bearer credential, accepting either a JWT signed
// with the daemon's secret or the standing admin bootstrap token printed at
// startup. Neither path looks up individual users: nedsad has no concept of
// accounts, only of having been handed valid credentials.
func (d *daemon) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tok, err := bearerToken(req)
		if err != nil {
			respond.Unauthorized("", err.Error()).WriteResponse(w, req, d.logger)
			return
		}

		if bcrypt.CompareHashAndPassword(d.adminTokenHash, []byte(tok)) == nil {
			next.ServeHTTP(w, req)
			return
		}

		_, err = jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
			return d.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer("nedsad"), jwt.WithLeeway(time.Minute))
		if err != nil {
			respond.Unauthorized("", err.Error()).WriteResponse(w, req, d.logger)
			return
		}

		next.ServeHTTP(w, req)
	})
}

func bearerToken(req *http.Request) (string, error) {
	authHeader := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}
	return authHeader[len(prefix):], nil
}

type invokeRequest struct {
	Source string `json:"source"`
}

type invokeResponse struct {
	Outcome string `json:"outcome"`
	RunID   string `json:"run_id"`
}

func (d *daemon) handleInvoke(kind audit.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body invokeRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respond.BadRequest("request body must be JSON with a \"source\" field", "decode: %s", err.Error()).WriteResponse(w, req, d.logger)
			return
		}

		nes, err := nedsa.CompileSource(body.Source, "<request>", d.logger)
		if err != nil {
			respond.BadRequest(err.Error(), "compile failed: %s", err.Error()).WriteResponse(w, req, d.logger)
			return
		}

		var outcome string
		if kind == audit.KindDecide {
			outcome = automaton.Clean(nes.Decide(d.logger))
		} else {
			outcome = automaton.Clean(nes.Run())
		}

		id, err := d.store.Log(req.Context(), kind, body.Source, nes.States(), outcome)
		if err != nil {
			respond.InternalServerError("audit log: %s", err.Error()).WriteResponse(w, req, d.logger)
			return
		}

		respond.OK(invokeResponse{Outcome: outcome, RunID: id.String()}, "%s -> %s", kind, outcome).WriteResponse(w, req, d.logger)
	}
}

func (d *daemon) handleGetRun(w http.ResponseWriter, req *http.Request) {
	idStr := chi.URLParam(req, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respond.BadRequest("invalid run id", "%s", err.Error()).WriteResponse(w, req, d.logger)
		return
	}

	rec, err := d.store.Get(req.Context(), id)
	if err != nil {
		respond.NotFound("no such run", "%s", err.Error()).WriteResponse(w, req, d.logger)
		return
	}

	respond.OK(rec, "found run %s", idStr).WriteResponse(w, req, d.logger)
}

func (d *daemon) handleListRuns(w http.ResponseWriter, req *http.Request) {
	recs, err := d.store.All(req.Context())
	if err != nil {
		respond.InternalServerError("list runs: %s", err.Error()).WriteResponse(w, req, d.logger)
		return
	}

	respond.OK(recs, "listed %d runs", len(recs)).WriteResponse(w, req, d.logger)
}
