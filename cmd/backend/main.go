package main

import (
	"backend/internal/api"
	"log"

	_ "backend/docs"
)

// @title Team Change Request API
// @version 1.0
// @description Бэкенд заявок на изменение команды: жизненный цикл, оплата через Square и сверка по вебхукам

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log.Println("App start")
	api.StartServer()
	log.Println("App terminated")
}
