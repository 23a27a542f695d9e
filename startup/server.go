package startup

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"

	"stay_service/authorization"
	"stay_service/casbinAuthorization"
	"stay_service/domain"
	"stay_service/handlers"
	application "stay_service/service"
	"stay_service/startup/config"
	store2 "stay_service/store"
)

type Server struct {
	config *config.Config
}

func NewServer(config *config.Config) *Server {
	return &Server{
		config: config,
	}
}

func (server *Server) Start() {

	logger := server.initLogger()

	ctx := context.Background()
	exp, err := newExporter(server.config.JaegerAddress)
	if err != nil {
		log.Fatalf("Failed to Initialize Exporter: %v", err)
	}

	tp := newTraceProvider(exp)
	defer func() { _ = tp.Shutdown(ctx) }()
	otel.SetTracerProvider(tp)
	tracer := tp.Tracer("stay_service")

	mongoClient := server.initMongoClient()
	defer func(mongoClient *mongo.Client, ctx context.Context) {
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}(mongoClient, ctx)

	redisClient := server.initRedisClient()

	reservationStore := server.initReservationStore(mongoClient, tracer)
	settingsStore := server.initSettingsStore(mongoClient, tracer)
	galleryCache := server.initGalleryCache(redisClient, tracer)

	sessions, err := authorization.NewGuestSessionManager([]byte(server.config.SecretKey))
	if err != nil {
		log.Fatal(err)
	}

	codeGenerator := application.NewCodeGenerator(reservationStore, tracer)
	reservationService := application.NewReservationService(reservationStore, settingsStore, codeGenerator, tracer)
	guestService := application.NewGuestService(reservationStore, settingsStore, galleryCache, sessions, tracer)

	reservationHandler := handlers.NewReservationHandler(logger, reservationService, tracer)
	guestHandler := handlers.NewGuestHandler(logger, guestService, sessions, tracer, server.config.SecureCookies)

	server.start(logger, reservationHandler, guestHandler)
}

func (server *Server) initLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if server.config.LogFile != "" {
		logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   server.config.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}))
	}
	return logger
}

func (server *Server) initMongoClient() *mongo.Client {
	client, err := store2.GetClient(context.TODO(), server.config.StayDBHost, server.config.StayDBPort)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func (server *Server) initRedisClient() *redis.Client {
	client, err := store2.GetRedisClient(server.config.GalleryCacheHost, server.config.GalleryCachePort)
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func (server *Server) initReservationStore(client *mongo.Client, tracer trace.Tracer) domain.ReservationStore {
	return store2.NewReservationMongoDBStore(client, tracer)
}

func (server *Server) initSettingsStore(client *mongo.Client, tracer trace.Tracer) domain.SettingsStore {
	return store2.NewSettingsMongoDBStore(client, tracer)
}

func (server *Server) initGalleryCache(client *redis.Client, tracer trace.Tracer) domain.GalleryAccessCache {
	return store2.NewGalleryRedisCache(client, tracer)
}

func (server *Server) start(logger *logrus.Logger, reservationHandler *handlers.ReservationHandler, guestHandler *handlers.GuestHandler) {
	router := mux.NewRouter()
	router.Use(MiddlewareContentTypeSet)

	guestRouter := router.PathPrefix("/api").Subrouter()
	guestHandler.Init(guestRouter)

	adminRouter := router.PathPrefix("/api/admin").Subrouter()
	casbinMiddleware, err := casbinAuthorization.InitializeCasbinMiddleware("./rbac_model.conf", "./policy.csv", logger)
	if err != nil {
		log.Fatal(err)
	}
	adminRouter.Use(casbinMiddleware)
	reservationHandler.Init(adminRouter)

	cors := gorillaHandlers.CORS(gorillaHandlers.AllowedOrigins([]string{"*"}))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", server.config.Port),
		Handler:      cors(router),
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	wait := time.Second * 15
	go func() {
		logger.Info("Server listening on port ", server.config.Port)
		if err := srv.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	c := make(chan os.Signal, 1)

	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	<-c

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Error Shutting Down Server %s", err)
	}
	log.Println("Server Gracefully Stopped")
}

func newExporter(address string) (*jaeger.Exporter, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(address)))
	if err != nil {
		return nil, err
	}
	return exp, nil
}

func newTraceProvider(exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("stay_service"),
		),
	)

	if err != nil {
		panic(err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(r),
	)
}

func MiddlewareContentTypeSet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		rw.Header().Add("Content-Type", "application/json")
		rw.Header().Set("X-Content-Type-Options", "nosniff")
		rw.Header().Set("X-Frame-Options", "DENY")

		next.ServeHTTP(rw, h)
	})
}
