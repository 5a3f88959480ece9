// main.go
//
// Heatstack server entry point.
//   - Loads .env (development), sets the zerolog level from LOG_LEVEL.
//   - Loads the playable word list (WORDS_FILE or the embedded list).
//   - Opens and migrates SQLite at DB_PATH.
//   - Serves the HTTP/WebSocket API on PORT (default 5175).

package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/heatstack/internal/daily"
	"github.com/robalobadob/heatstack/internal/db"
	"github.com/robalobadob/heatstack/internal/game"
	"github.com/robalobadob/heatstack/internal/httpserver"
	"github.com/robalobadob/heatstack/internal/store"
	"github.com/robalobadob/heatstack/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if getEnv("LOG_PRETTY", "") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	zone, err := daily.Zone(getEnv("DAILY_TZ", daily.DefaultZone))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DAILY_TZ")
	}

	idx, err := words.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	log.Info().Int("words", idx.Len()).Msg("word list loaded")

	conn, err := db.OpenMigrated(getEnv("DB_PATH", "./data/heatstack.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer conn.Close()

	eng := game.NewEngine(idx, daily.SystemClock{}, zone)
	srv := httpserver.New(store.NewMemoryStore(), conn, eng)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Str("zone", zone.String()).Msg("starting heatstack server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
