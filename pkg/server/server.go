package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/gatehouse/gatehouse/pkg/authn"
	"github.com/gatehouse/gatehouse/pkg/config"
	"github.com/gatehouse/gatehouse/pkg/provider"
	"github.com/gatehouse/gatehouse/pkg/server/store"
)

type Server struct {
	Users    store.UserStore
	Pipeline *authn.Pipeline
	Provider *provider.Verifier
	Config   *config.GatehouseConfig
	Router   *mux.Router
	DB       *gorm.DB
	srv      *http.Server
}

func NewServer(
	users store.UserStore,
	pipeline *authn.Pipeline,
	idp *provider.Verifier,
	cfg *config.GatehouseConfig,
	db *gorm.DB,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Users:    users,
		Pipeline: pipeline,
		Provider: idp,
		Config:   cfg,
		Router:   router,
		DB:       db,
		srv:      srv,
	}
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}
