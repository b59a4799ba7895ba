package main

import (
	"context"
	"log"
	"os"

	"github.com/microloans/loan-service/internal/app/bootstrap"
)

func main() {
	role := os.Getenv(bootstrap.RoleEnv)
	if len(os.Args) > 1 {
		role = os.Args[1]
	}
	if err := bootstrap.Run(context.Background(), role, "configs/default.yaml"); err != nil {
		log.Fatalf("loan-service: %v", err)
	}
}
