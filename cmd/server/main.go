package main

import (
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/klass-lk/blogboot/internal/config"
	"github.com/klass-lk/blogboot/internal/controller"
	"github.com/klass-lk/blogboot/internal/logging"
	"github.com/klass-lk/blogboot/internal/middleware"
	"github.com/klass-lk/blogboot/internal/publish"
	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/service"
	"github.com/klass-lk/blogboot/internal/store"
	"github.com/klass-lk/blogboot/internal/token"
)

func newStore(cfg *config.Config) (store.DocumentStore, error) {
	switch cfg.Storage {
	case config.StorageMongo:
		db, err := cfg.Mongo.Connect()
		if err != nil {
			return nil, err
		}
		return store.NewMongoStore(db), nil
	case config.StorageSQL:
		db, err := cfg.SQL.Connect()
		if err != nil {
			return nil, err
		}
		sqlStore := store.NewSQLStore(db)
		if err := sqlStore.CreateTables(); err != nil {
			return nil, err
		}
		return sqlStore, nil
	default:
		return store.NewJSONStore(cfg.DataDir)
	}
}

func newRevocationStore(cfg *config.Config) (token.RevocationStore, error) {
	if cfg.Revocation != config.RevocationDynamo {
		return token.NewMemoryRevocationStore(), nil
	}
	client, err := token.NewDynamoClient(cfg.RevocationRegion)
	if err != nil {
		return nil, err
	}
	return token.NewDynamoRevocationStore(client, cfg.RevocationTable)
}

func newFileService(cfg *config.Config) (publish.FileService, error) {
	if cfg.Publish != config.PublishS3 {
		return publish.NewLocalFileService(cfg.PublicDir), nil
	}
	return publish.NewS3FileService(publish.S3Config{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	})
}

func main() {
	cfg := config.Load()

	if err := logging.Setup(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	documents, err := newStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	revoked, err := newRevocationStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize revocation store: %v", err)
	}

	tokens := token.NewService(token.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, revoked)

	files, err := newFileService(cfg)
	if err != nil {
		log.Fatalf("failed to initialize file service: %v", err)
	}

	authService := service.NewAuthService(tokens, cfg.AdminPassword, cfg.AdminPasswordHash)
	postService := service.NewPostService(documents)
	siteService := service.NewSiteService(documents)
	publisher := publish.NewPublisher(files)
	visits := middleware.NewVisitCounter()

	srv := server.New().DefaultCORS()
	srv.RegisterGroups(
		server.RouterGroup{
			Path: "/api",
			Controllers: []server.Controller{
				controller.NewAuthController(authService, tokens),
			},
		},
		server.RouterGroup{
			Path:       "/api",
			Middleware: []gin.HandlerFunc{middleware.RequireAuth(tokens)},
			Controllers: []server.Controller{
				controller.NewPostController(postService),
				controller.NewSiteController(siteService, visits),
				controller.NewPublishController(publisher),
			},
		},
		server.RouterGroup{
			Path:       "/api/public",
			Middleware: []gin.HandlerFunc{middleware.OptionalAuth(tokens), visits.Middleware()},
			Controllers: []server.Controller{
				controller.NewPublicPostController(postService),
			},
		},
	)

	if err := srv.Start(cfg.Port); err != nil {
		log.Fatal(err)
	}
}
