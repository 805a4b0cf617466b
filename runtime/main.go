package main

import (
	"github.com/dentis-care/dentis-api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.PostgresService{},
		&services.RedisService{},

		&services.RateLimitService{},
		&services.AuthService{},
		&services.ToolPolicyService{},
		&services.AISafetyService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service context")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service context stopped")
		return
	}
}
