package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/Decentr-net/logrus/sentry"

	"github.com/Decentr-net/odyssey/internal/blob"
	"github.com/Decentr-net/odyssey/internal/blob/azure"
	blobmemory "github.com/Decentr-net/odyssey/internal/blob/memory"
	"github.com/Decentr-net/odyssey/internal/blob/s3"
	"github.com/Decentr-net/odyssey/internal/health"
	"github.com/Decentr-net/odyssey/internal/ingest"
	"github.com/Decentr-net/odyssey/internal/server"
	"github.com/Decentr-net/odyssey/internal/service/impl"
	"github.com/Decentr-net/odyssey/internal/storage"
	"github.com/Decentr-net/odyssey/internal/storage/memory"
	mongostorage "github.com/Decentr-net/odyssey/internal/storage/mongo"
	"github.com/Decentr-net/odyssey/internal/storage/postgres"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Host            string        `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port            int           `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on for insecure connections"`
	RequestTimeout  time.Duration `long:"http.request_timeout" env:"HTTP_REQUEST_TIMEOUT" default:"30s" description:"request processing timeout"`
	ShutdownTimeout time.Duration `long:"http.shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" default:"10s" description:"graceful shutdown timeout"`
	MaxBodySize     int64         `long:"http.max_body_size" env:"HTTP_MAX_BODY_SIZE" default:"65536" description:"max size of json request body in bytes"`
	MaxUploadSize   int64         `long:"http.max_upload_size" env:"HTTP_MAX_UPLOAD_SIZE" default:"10485760" description:"max size of upload request body in bytes"`

	Storage string `long:"storage" env:"STORAGE" default:"postgres" choice:"postgres" choice:"mongo" choice:"memory" description:"entries storage"`

	Postgres                   string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMaxOpenConnections int    `long:"postgres.max_open_connections" env:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"0" description:"postgres maximal open connections count, 0 means unlimited"`
	PostgresMaxIdleConnections int    `long:"postgres.max_idle_connections" env:"POSTGRES_MAX_IDLE_CONNECTIONS" default:"5" description:"postgres maximal idle connections count"`
	PostgresMigrations         string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`

	MongoURI        string `long:"mongo.uri" env:"MONGO_URI" default:"mongodb://localhost:27017" description:"mongo connection uri"`
	MongoDatabase   string `long:"mongo.database" env:"MONGO_DATABASE" default:"odyssey" description:"mongo database"`
	MongoCollection string `long:"mongo.collection" env:"MONGO_COLLECTION" default:"journals" description:"mongo collection"`

	Blob          string `long:"blob" env:"BLOB" default:"azure" choice:"azure" choice:"s3" choice:"memory" description:"blob storage for uploads"`
	BlobContainer string `long:"blob.container" env:"BLOB_CONTAINER" default:"journal-images" description:"container (bucket) for uploads"`

	AzureConnectionString string `long:"azure.connection_string" env:"AZURE_STORAGE_CONNECTION_STRING" description:"azure storage account connection string"`

	S3Region          string `long:"s3.region" env:"S3_REGION" default:"us-east-1" description:"s3 region"`
	S3Endpoint        string `long:"s3.endpoint" env:"S3_ENDPOINT" description:"custom endpoint for s3 compatible storages"`
	S3AccessKeyID     string `long:"s3.access_key_id" env:"S3_ACCESS_KEY_ID" description:"s3 access key id"`
	S3SecretAccessKey string `long:"s3.secret_access_key" env:"S3_SECRET_ACCESS_KEY" description:"s3 secret access key"`
	S3UsePathStyle    bool   `long:"s3.use_path_style" env:"S3_USE_PATH_STYLE" description:"use path-style addressing"`

	MemoryBlobURL string `long:"memory.blob_url" env:"MEMORY_BLOB_URL" default:"http://localhost:8080/blobs" description:"url prefix of blobs stored in memory"`

	LogLevel  string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
	SentryDSN string `long:"sentry.dsn" env:"SENTRY_DSN" description:"sentry dsn"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Fatal("failed to load .env")
	}

	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Odyssey"
	parser.LongDescription = "Odyssey travel journal service"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	if opts.SentryDSN != "" {
		hook, err := sentry.NewHook(sentry.Options{
			Dsn:              opts.SentryDSN,
			AttachStacktrace: true,
			Release:          health.GetVersion(),
			ServerName:       "odyssey",
		}, logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel)

		if err != nil {
			logrus.WithError(err).Fatal("failed to init sentry")
		}

		logrus.AddHook(hook)
	} else {
		logrus.Info("empty sentry dsn")
		logrus.Warn("skip sentry initialization")
	}

	logrus.WithFields(logrus.Fields{
		"storage": opts.Storage,
		"blob":    opts.Blob,
		"version": health.GetVersion(),
	}).Info("starting service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, closeStorage := mustGetStorage(ctx)
	defer closeStorage()

	open, blobs := getBlobOpener()

	r := chi.NewMux()
	if blobs != nil {
		blobs.Mount(r)
	}
	r.Get("/health", health.Handler(
		5*time.Second,
		health.SubjectPinger("storage", s.Ping),
		health.SubjectPinger("blob", func(ctx context.Context) error {
			b, err := open(ctx)
			if err != nil {
				return err
			}
			return b.Ping(ctx)
		}),
	))

	r.Group(func(r chi.Router) {
		server.SetupRouter(r, impl.New(s), ingest.New(open, opts.BlobContainer), server.Options{
			Timeout:       opts.RequestTimeout,
			MaxBodySize:   opts.MaxBodySize,
			MaxUploadSize: opts.MaxUploadSize,
		})
	})

	srv := http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	gr, _ := errgroup.WithContext(ctx)
	gr.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		s := <-sigs

		logrus.Infof("terminating by %s signal", s)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("failed to shutdown http server gracefully")
		}

		cancel()

		return errTerminated
	})

	logrus.Infof("service started on %s", srv.Addr)

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}
}

func mustGetStorage(ctx context.Context) (storage.Storage, func()) {
	switch opts.Storage {
	case "postgres":
		db := mustGetDB()
		return postgres.New(db), func() { _ = db.Close() }
	case "mongo":
		c := mustGetMongo(ctx)
		return mongostorage.New(c), func() {
			if err := c.Database().Client().Disconnect(context.Background()); err != nil {
				logrus.WithError(err).Error("failed to disconnect from mongo")
			}
		}
	default:
		logrus.Warn("entries are stored in memory and will be lost on restart")
		return memory.New(), func() {}
	}
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}
	db.SetMaxOpenConns(opts.PostgresMaxOpenConnections)
	db.SetMaxIdleConns(opts.PostgresMaxIdleConnections)

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch v, d, err := migrator.Version(); err {
	case nil:
		logrus.Infof("database version %d with dirty state %t", v, d)
	case migrate.ErrNilVersion:
		logrus.Info("database version: nil")
	default:
		logrus.WithError(err).Fatal("failed to get version")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}

func mustGetMongo(ctx context.Context) *mongo.Collection {
	client, err := mongo.Connect(options.Client().ApplyURI(opts.MongoURI))
	if err != nil {
		logrus.WithError(err).Fatal("failed to create mongo client")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c := client.Database(opts.MongoDatabase).Collection(opts.MongoCollection)

	if err := mongostorage.New(c).Ping(pingCtx); err != nil {
		logrus.WithError(err).Fatal("failed to ping mongo")
	}

	if err := mongostorage.EnsureIndexes(pingCtx, c); err != nil {
		logrus.WithError(err).Fatal("failed to create mongo indexes")
	}

	return c
}

// getBlobOpener doesn't validate blob configuration: uploads fail with configuration error until it's fixed.
// getBlobOpener returns opener of configured blob storage.
// In-memory store is returned as well to serve its blobs.
func getBlobOpener() (blob.Opener, *blobmemory.Store) {
	switch opts.Blob {
	case "s3":
		return s3.Opener(s3.Config{
			Region:          opts.S3Region,
			AccessKeyID:     opts.S3AccessKeyID,
			SecretAccessKey: opts.S3SecretAccessKey,
			Endpoint:        opts.S3Endpoint,
			UsePathStyle:    opts.S3UsePathStyle,
		}), nil
	case "memory":
		logrus.Warn("uploads are stored in memory and will be lost on restart")
		b := blobmemory.New(opts.MemoryBlobURL)
		return b.Opener(), b
	default:
		return azure.Opener(opts.AzureConnectionString), nil
	}
}
