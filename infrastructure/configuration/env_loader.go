package configuration

import (
	"os"

	"github.com/joho/godotenv"

	"linkhub/infrastructure/logger"
)

// LoadEnvFromFile loads KEY=VALUE pairs from files such as config.env and .env.
// Variables already present in the environment are not overridden.
func LoadEnvFromFile(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.GetLogger().WithField("error", err).WithField("file", p).Warn("Failed to load env file")
			continue
		}
		logger.GetLogger().WithField("file", p).Info("Loaded env file")
	}
}
