package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	authapi "github.com/desain-gratis/media-console/delivery/auth-api"
	mycontentapi "github.com/desain-gratis/media-console/delivery/mycontent-api"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
	blob_cloud "github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob/cloud"
	blob_gcs "github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob/gcs"
	blob_s3 "github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob/s3"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
	content_datastore "github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content/datastore"
	content_inmemory "github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content/inmemory"
	content_mongo "github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content/mongo"
	content_postgres "github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content/postgres"
	"github.com/desain-gratis/media-console/repository/lastlogin"
	lastlogin_redis "github.com/desain-gratis/media-console/repository/lastlogin/redis"
	"github.com/desain-gratis/media-console/repository/limiter"
	limiter_redis "github.com/desain-gratis/media-console/repository/limiter/redis"
	password_static "github.com/desain-gratis/media-console/repository/password/static"
	"github.com/desain-gratis/media-console/types/entity"
	signin_handler "github.com/desain-gratis/media-console/usecase/signin/handler"
	signing_handler "github.com/desain-gratis/media-console/usecase/signing/handler"
	"github.com/desain-gratis/media-console/utility/secret"
	hmac_hardcode "github.com/desain-gratis/media-console/utility/secret/hmac/hardcode"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin console API",
	RunE:  runServe,
}

// closers run in reverse order on shutdown
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn().Err(err).Msg("failed to close")
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configDir, env)
	if err != nil {
		return err
	}
	initLogger(cfg.Log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var cl closers
	defer cl.close()

	blobRepo, err := openBlob(ctx, cfg.Blob, &cl)
	if err != nil {
		return err
	}

	store, err := openContent(ctx, cfg.Content, &cl)
	if err != nil {
		return err
	}

	router := httprouter.New()

	auth, err := enableAuthAPI(ctx, router, cfg.Auth, &cl)
	if err != nil {
		return err
	}

	enableContentAPI(router, cfg.HTTP, store, blobRepo, auth)

	return serve(cfg.HTTP, router)
}

func openBlob(ctx context.Context, cfg BlobConfig, cl *closers) (blob.Repository, error) {
	switch cfg.Driver {
	case "gcs":
		return blob_gcs.New(ctx, cfg.Bucket, cfg.PublicURL)
	case "s3":
		return blob_s3.New(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.UseSSL, cfg.Bucket, cfg.PublicURL)
	case "cloud":
		repo, err := blob_cloud.Open(ctx, cfg.URL, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		cl.add(repo.Close)
		return repo, nil
	}
	return nil, fmt.Errorf("unknown blob driver %v", cfg.Driver)
}

func openContent(ctx context.Context, cfg ContentConfig, cl *closers) (content.Repository, error) {
	switch cfg.Driver {
	case "inmemory":
		log.Warn().Msg("records are kept in memory and lost on restart")
		return content_inmemory.New(), nil
	case "postgres":
		db, err := sqlx.Connect("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to connect postgres", err)
		}
		cl.add(db.Close)

		repo := content_postgres.New(db)
		for _, kind := range entity.Kinds() {
			if err := repo.EnsureCollection(ctx, kind.Collection); err != nil {
				return nil, err
			}
		}
		return repo, nil
	case "mongo":
		repo, client, err := content_mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		cl.add(func() error { return client.Disconnect(context.Background()) })

		for _, kind := range entity.Kinds() {
			if err := repo.EnsureCollection(ctx, kind.Collection); err != nil {
				return nil, err
			}
		}
		return repo, nil
	case "datastore":
		repo, err := content_datastore.Connect(ctx, cfg.Datastore.ProjectID)
		if err != nil {
			return nil, err
		}
		cl.add(repo.Close)
		return repo, nil
	}
	return nil, fmt.Errorf("unknown content driver %v", cfg.Driver)
}

func enableAuthAPI(ctx context.Context, router *httprouter.Router, cfg AuthConfig, cl *closers) (mycontentapi.Authorization, error) {
	if cfg.Disabled {
		log.Warn().Msg("authorization is disabled, every bearer token is accepted")
		return mycontentapi.EmptyAuthorization(), nil
	}

	// viper lower-cases map keys
	accounts := make([]password_static.Account, 0, len(cfg.Accounts))
	for uid, account := range cfg.Accounts {
		accounts = append(accounts, password_static.Account{
			UserID:       uid,
			Email:        account.Email,
			PasswordHash: account.PasswordHash,
		})
	}
	admins := make([]string, 0, len(cfg.Admins))
	for _, uid := range cfg.Admins {
		admins = append(admins, strings.ToLower(uid))
	}

	keys := hmac_hardcode.New()
	if cfg.SecretFile != "" {
		n, err := secret.Load(cfg.SecretFile, keys)
		if err != nil {
			return nil, err
		}
		log.Info().Msgf("loaded %v session keys from %v", n, cfg.SecretFile)
	}
	if cfg.TokenSecret != "" {
		if err := keys.Store(cfg.TokenKeyID, cfg.TokenSecret); err != nil {
			return nil, err
		}
	}

	var limiterRepo limiter.Repository = limiter.NewUnlimited()
	var lastLoginRepo lastlogin.Repository = lastlogin.NewInMemory()
	if cfg.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cl.add(client.Close)

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("%w: failed to ping redis at %v", err, cfg.Redis.Address)
		}
		limiterRepo = limiter_redis.New(client, cfg.Redis.Prefix)
		lastLoginRepo = lastlogin_redis.New(client, cfg.Redis.Prefix)
	} else {
		log.Warn().Msg("no redis configured, login throttling is off")
	}

	signinUC := signin_handler.New(
		signin_handler.Config{
			Admins:      admins,
			MaxAttempts: cfg.MaxAttempts,
			Lockout:     cfg.Lockout,
		},
		password_static.NewHashed(accounts),
		limiterRepo,
		lastLoginRepo,
		signing_handler.NewHMAC(keys, cfg.TokenKeyID, cfg.TokenTTL),
	)

	authapi.NewLoginService(signinUC).Register(router)

	return signinUC, nil
}

func enableContentAPI(
	router *httprouter.Router,
	cfg HTTPConfig,
	store content.Repository,
	blobRepo blob.Repository,
	auth mycontentapi.Authorization,
) {
	var ucs []mycontent.Usecase
	for _, kind := range entity.Kinds() {
		handler := mycontentapi.NewFromStorage(kind, store, blobRepo, cfg.CacheControl)
		handler.Register(router, auth)
		ucs = append(ucs, handler.Usecase())
	}

	mycontentapi.NewDashboard(ucs...).Register(router, auth)
}

func serve(cfg HTTPConfig, router *httprouter.Router) error {
	server := http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		// uploads stream for a while, no write timeout
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		log.Info().Msgf("Shutting down HTTP server..")
		if err := server.Shutdown(ctx); err != nil {
			log.Err(err).Msgf("HTTP server Shutdown")
		}
		log.Info().Msgf("Stopped serving new connections.")
		close(idleConnsClosed)
	}()

	log.Info().Msgf("Serving at %v..", cfg.Address)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("%w: HTTP server ListenAndServe", err)
	}

	<-idleConnsClosed
	log.Info().Msgf("Bye bye")

	return nil
}
