package main

import (
	"fmt"
	"log"

	"travel-planner/internal/config"
	"travel-planner/internal/router"
	"travel-planner/internal/storage"
)

func main() {
	// load configuration
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 选择并初始化存储后端（进程启动时定死，之后不再切换）
	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}

	// setup router
	r := router.SetupRouter(cfg, store)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
