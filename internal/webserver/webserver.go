package webserver

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/talkincode/toughstore/config"
	"github.com/talkincode/toughstore/internal/catalog"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebServer hosts the admin API under /api (jwt protected) and the
// public storefront under /store.
type WebServer struct {
	root      *echo.Echo
	api       *echo.Group
	pub       *echo.Group
	appConfig *config.AppConfig
	db        *gorm.DB
	service   *catalog.Service
}

var server *WebServer

// CustomValidator adapts go-playground/validator to echo.
type CustomValidator struct {
	validate *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

// jsonSerializer swaps echo's JSON codec for json-iterator.
type jsonSerializer struct{}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsonAPI.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsonAPI.NewDecoder(c.Request().Body).Decode(i)
	if err == io.EOF {
		return err
	}
	return err
}

// Init builds the global webserver instance.
func Init(cfg *config.AppConfig, db *gorm.DB, service *catalog.Service) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validate: validator.New()}
	e.JSONSerializer = jsonSerializer{}
	e.Use(middleware.Recover())
	e.Use(zapLoggerMiddleware())
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.Web.SessionSecret))))

	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.Web.Secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(TokenClaims)
		},
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/login"
		},
	}))

	pub := e.Group("/store")

	server = &WebServer{
		root:      e,
		api:       api,
		pub:       pub,
		appConfig: cfg,
		db:        db,
		service:   service,
	}

	api.POST("/login", loginHandler)
}

func zapLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status))
			return nil
		},
	})
}

// Listen starts serving until the listener fails.
func Listen() error {
	return server.root.Start(fmt.Sprintf("%s:%d",
		server.appConfig.Web.Host, server.appConfig.Web.Port))
}

// Shutdown drains in-flight requests and closes the http server.
func Shutdown(ctx context.Context) error {
	return server.root.Shutdown(ctx)
}

// DB returns the shared gorm handle.
func DB() *gorm.DB {
	return server.db
}

// Catalog returns the catalog service.
func Catalog() *catalog.Service {
	return server.service
}

// AppConfig returns the loaded configuration.
func AppConfig() *config.AppConfig {
	return server.appConfig
}

// Echo exposes the root engine (used in tests).
func Echo() *echo.Echo {
	return server.root
}

// ApiGET registers a jwt-protected handler under /api.
func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}

// PubGET registers a public storefront handler under /store.
func PubGET(path string, h echo.HandlerFunc) {
	server.pub.GET(path, h)
}

func PubPOST(path string, h echo.HandlerFunc) {
	server.pub.POST(path, h)
}

// ServerError is the generic 500 payload.
func ServerError(c echo.Context, msg string) error {
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"code": "SERVER_ERROR",
		"msg":  msg,
	})
}
