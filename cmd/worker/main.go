// Command worker processes new-post notifications enqueued by the API
// server when notify.driver is "asynq".
package main

import (
	"flag"
	"log"

	"github.com/simp-lee/microblog/internal/app"
	"github.com/simp-lee/microblog/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before APP__ overrides")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	w, err := app.NewWorker(cfg)
	if err != nil {
		log.Fatal("failed to create worker: ", err)
	}

	if err := w.Run(); err != nil {
		log.Fatal("worker error: ", err)
	}
}
