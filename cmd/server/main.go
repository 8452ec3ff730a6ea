// Command server hosts the linkauth HTTP endpoints: local register/login,
// the Google sign-in handshake and the account-linking flow.
package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/caarlos0/env/v11"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rkrish/linkauth"
	googleoauth "github.com/rkrish/linkauth/oauth2"
	gormstore "github.com/rkrish/linkauth/stores/gorm"
)

type config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	JWTSecretKey string `env:"JWT_SECRET_KEY,required"`
	JWTIssuer    string `env:"JWT_ISSUER" envDefault:"linkauth"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL,required"`

	// InsecureCookies drops the Secure cookie flag for local development.
	InsecureCookies bool `env:"INSECURE_COOKIES"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		log.Fatalf("migrating database: %v", err)
	}
	store := gormstore.NewStore(db)

	issuer := &linkauth.Issuer{
		SecretKey: cfg.JWTSecretKey,
		Issuer:    cfg.JWTIssuer,
	}

	metrics := linkauth.NewMetrics(prometheus.DefaultRegisterer)

	auth := &linkauth.Auth{
		Store:           store,
		Issuer:          issuer,
		InsecureCookies: cfg.InsecureCookies,
		Metrics:         metrics,
	}
	guards := &linkauth.Guards{Issuer: issuer, Store: store}

	// The scs session only carries the OAuth handshake state between the
	// begin redirect and the callback.
	session := scs.New()
	session.Lifetime = 10 * time.Minute
	session.Cookie.HttpOnly = true
	session.Cookie.Secure = !cfg.InsecureCookies
	session.Cookie.SameSite = http.SameSiteLaxMode // cross-site redirect from Google

	google := googleoauth.NewGoogle(
		cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL,
		session,
		func(user googleoauth.VerifiedUser, w http.ResponseWriter, r *http.Request) {
			auth.HandleGoogleUser(linkauth.GoogleIdentity{
				Email:     user.Email,
				Name:      user.Name,
				AvatarURL: user.AvatarURL,
			}, w, r)
		},
	)

	limiter := linkauth.NewRateLimiter(linkauth.DefaultRateLimiterConfig())
	defer limiter.Stop()
	throttled := limiter.Middleware()

	r := mux.NewRouter()
	r.Handle("/auth/register", throttled(http.HandlerFunc(auth.HandleRegister))).Methods(http.MethodPost)
	r.Handle("/auth/login", throttled(http.HandlerFunc(auth.HandleLogin))).Methods(http.MethodPost)
	r.Handle("/auth/google", throttled(http.HandlerFunc(google.HandleBegin))).Methods(http.MethodGet)
	r.Handle("/auth/google/callback", http.HandlerFunc(google.HandleCallback)).Methods(http.MethodGet)
	r.Handle("/auth/google/link", throttled(guards.RequireLinkToken(http.HandlerFunc(auth.HandleLinkGoogle)))).Methods(http.MethodGet)
	r.Handle("/auth/logout", guards.RequireSession(http.HandlerFunc(auth.HandleLogout))).Methods(http.MethodDelete)
	r.Handle("/auth/me", guards.RequireSession(http.HandlerFunc(auth.HandleMe))).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	handler := session.LoadAndSave(r)

	addr := ":" + cfg.Port
	slog.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
