package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialcard-server/compose"
	"socialcard-server/config"
	"socialcard-server/handlers/api/assets"
	"socialcard-server/handlers/api/cards"
	"socialcard-server/handlers/api/ogmeta"
	"socialcard-server/handlers/api/preview"
	"socialcard-server/handlers/api/templates"
	"socialcard-server/handlers/websocket"
	"socialcard-server/metadata"
	appmw "socialcard-server/middleware"
	"socialcard-server/stores"
	"socialcard-server/studio"
	"socialcard-server/transform"
	"socialcard-server/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type services struct {
	studio   *studio.Studio
	gallery  []studio.GalleryEntry
	fetcher  *metadata.Fetcher
	uploader *upload.Cloudinary
	limiter  *appmw.Limiter
}

func corsOptions(allowedOrigins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}

			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "::1":
					return true
				}
			}

			for _, allowed := range allowedOrigins {
				if allowed == origin {
					return true
				}
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func setupRouter(cfg *config.Config, svc services) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(appmw.Metrics)
	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"status":       "ok",
			"liveSessions": websocket.GetActiveSessions(),
		})
	})

	r.Route("/api/templates", func(r chi.Router) {
		r.Get("/", templates.HandleList(svc.gallery))
		r.Route("/saved", func(r chi.Router) {
			r.Get("/", cards.HandleList(svc.studio))
			r.Post("/", cards.HandleCreate(svc.studio))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cards.HandleGet(svc.studio))
				r.With(svc.limiter.Handler).Get("/thumbnail", cards.HandleThumbnail(svc.studio))
				r.Get("/qr", cards.HandleQR(svc.studio))
			})
		})
		r.Get("/{id}", templates.HandleGet(svc.gallery))
	})

	r.Post("/api/preview", preview.HandlePreview(svc.studio))
	r.Get("/api/preview/url", preview.HandlePreviewURL(svc.studio))

	// Endpoints that reach out to other hosts share the per-IP limiter.
	r.Group(func(r chi.Router) {
		r.Use(svc.limiter.Handler)
		r.Get("/api/export", preview.HandleExport(svc.studio))
		r.Get("/api/og-metadata", ogmeta.HandleFetch(svc.fetcher))
		r.Post("/api/assets", assets.HandleUpload(svc.uploader, cfg.MaxUploadBytes))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func waitForShutdown(ioo *socketio.Server, limiter *appmw.Limiter) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down...")
	ioo.Close(nil)
	limiter.Close()
	os.Exit(0)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	// Define a log level flag
	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", "", "Set the server listen address (overrides config)")
	configPath := flag.String("config", "", "Path to an optional YAML config file")
	flag.Parse()

	// Set the log level
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	builder := compose.NewBuilder(compose.DefaultRegistry(cfg.SampleAssetID), compose.Options{
		BadgeAssetID: cfg.BadgeAssetID,
	})
	encoder := transform.New(transform.Options{
		BaseURL:   cfg.Cloudinary.BaseURL,
		CloudName: cfg.Cloudinary.CloudName,
	})
	client := &http.Client{Timeout: cfg.FetchTimeout()}

	st := studio.New(studio.Deps{
		Builder: builder,
		Encoder: encoder,
		Store:   stores.GetStore(cfg.Storage),
		Client:  client,
	})

	gallery, err := studio.BuildGallery(builder, encoder)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build template gallery")
	}

	fetcher, err := metadata.NewFetcher(metadata.Options{
		Timeout:   cfg.FetchTimeout(),
		CacheSize: cfg.MetadataCacheSize,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create metadata fetcher")
	}

	uploader := upload.NewCloudinary(upload.Options{
		APIBase:      cfg.Cloudinary.APIBase,
		CloudName:    cfg.Cloudinary.CloudName,
		UploadPreset: cfg.Cloudinary.UploadPreset,
		Folder:       cfg.Cloudinary.UploadFolder,
	})

	limiter := appmw.NewLimiter(cfg.RateLimitPerMinute, time.Minute)

	r := setupRouter(cfg, services{
		studio:   st,
		gallery:  gallery,
		fetcher:  fetcher,
		uploader: uploader,
		limiter:  limiter,
	})
	ioo := websocket.SetupSocketIO(st, cfg.AllowedOrigins)
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithFields(logrus.Fields{
		"addr":       cfg.ListenAddr,
		"cloud_name": cfg.Cloudinary.CloudName,
		"templates":  len(gallery),
	}).Info("starting server")
	go func() {
		if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo, limiter)
}
