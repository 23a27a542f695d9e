package main

import (
	"stay_service/startup"
	"stay_service/startup/config"
)

func main() {
	cfg := config.NewConfig()
	server := startup.NewServer(cfg)
	server.Start()
}
