package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MicahParks/keyfunc"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"corkboard/api"
	"corkboard/board"
	"corkboard/storage"
)

func main() {
	// Absent .env files are fine; the environment wins either way.
	_ = godotenv.Load()

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		redisConn = "localhost:6379"
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	rc := redis.NewClient(redisOpts)
	store := storage.New(rc, os.Getenv("SNAPSHOT_KEY"))

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	logger := log.New()
	ctrl := board.NewController(store, board.NopRenderer{}, logger)
	if err := ctrl.Load(context.Background()); err != nil {
		log.Fatalf("load board: %v", err)
	}

	var auth *api.Auth
	if secret := os.Getenv("LOCAL_AUTH_SHARED_SECRET"); secret != "" {
		auth = api.NewAuth(nil, os.Getenv("AUTH_AUDIENCE"), os.Getenv("AUTH_ISSUER"), []byte(secret))
	} else if authDomain := os.Getenv("AUTH_DOMAIN"); authDomain != "" {
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", authDomain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, os.Getenv("AUTH_AUDIENCE"), "https://"+authDomain+"/", nil)
	} else {
		auth = api.NewAuth(nil, "", "", nil)
		log.Warn("auth disabled, serving the anonymous local board")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddleware("corkboard"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, ctrl, store, auth, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
