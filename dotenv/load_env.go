package dotenv

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// LoadEnv loads environment variables from the given files.
// Without arguments it reads .env from the working directory and treats a missing
// file as nothing to load. Variables already present in the environment win.
func LoadEnv(envPath ...string) error {
	if len(envPath) == 0 {
		err := godotenv.Load(defaultEnvFile)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	return godotenv.Load(envPath...)
}
