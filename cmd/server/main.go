package main

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"

	"github.com/Elmar465/SpendSnap/internal/accountdelivery"
	"github.com/Elmar465/SpendSnap/internal/accountrepo"
	"github.com/Elmar465/SpendSnap/internal/accountservice"
	"github.com/Elmar465/SpendSnap/internal/middleware"
	"github.com/Elmar465/SpendSnap/internal/userdelivery"
	"github.com/Elmar465/SpendSnap/internal/userrepo"
	"github.com/Elmar465/SpendSnap/internal/userservice"
	"github.com/Elmar465/SpendSnap/pkg/configpkg"
	"github.com/Elmar465/SpendSnap/pkg/dbpkg"
	"github.com/Elmar465/SpendSnap/pkg/tokenpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.GetLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}

	server, err := createServer(conn, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	server.Use(middleware.RequestLogger(logger))

	err = server.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}

func createServer(conn *sql.DB, config configpkg.Config) (*gin.Engine, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo)

	userHandler := userdelivery.NewHandler(userService, tokenMaker, config.AccessTokenDuration)
	accountHandler := accountdelivery.NewHandler(accountService)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()

	server.Use(gin.Recovery())

	server.POST("/users", userHandler.Create)
	server.POST("/users/login", userHandler.Login)

	authRoutes := server.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.PATCH("/accounts/:id", accountHandler.Update)
	authRoutes.DELETE("/accounts/:id", accountHandler.Delete)
	authRoutes.POST("/accounts/:id/archive", accountHandler.Archive)
	authRoutes.POST("/accounts/:id/deposits", accountHandler.Deposit)
	authRoutes.POST("/accounts/:id/withdrawals", accountHandler.Withdraw)
	authRoutes.GET("/accounts/:id/balance", accountHandler.GetBalance)
	authRoutes.POST("/accounts/:id/interest/accruals", accountHandler.AccrueInterest)
	authRoutes.GET("/accounts/:id/interest/preview", accountHandler.PreviewInterest)

	authRoutes.POST("/transfers", accountHandler.Transfer)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("currency", accountdelivery.ValidCurrency)
		if err != nil {
			return nil, errors.New("cannot register currency validator")
		}
	}

	return server, nil
}
