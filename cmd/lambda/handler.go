package main

import (
	"context"
	"fmt"

	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/mikael-devkh/sistema/internal/app"
	"github.com/mikael-devkh/sistema/internal/config"
	"github.com/mikael-devkh/sistema/internal/logger"
)

var ginLambda *ginadapter.GinLambda

// initProxy loads the configuration and builds the router once per container
func initProxy(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ginLambda = ginadapter.New(a.Router())
	return nil
}
