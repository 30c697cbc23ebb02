// cmd/seeder/main.go
package main

import (
    "context"
    "fmt"
    "log"
    "os"

    "github.com/joho/godotenv"

    "github.com/belldivine070/CMS/internal/config"
    "github.com/belldivine070/CMS/internal/db"
)

func main() {
    _ = godotenv.Load()

    cfg, err := config.Load(context.Background())
    if err != nil {
        log.Fatal(err)
    }

    conn, err := db.Connect(cfg.DatabaseURL)
    if err != nil {
        log.Fatal(err)
    }
    defer conn.Close()

    seedFiles := []string{
        "seed/schema.sql",
        "seed/users.sql",
        "seed/subscribers.sql",
        "seed/broadcasts.sql",
    }

    for _, file := range seedFiles {
        content, err := os.ReadFile(file)
        if err != nil {
            log.Fatalf("failed to read %s: %v", file, err)
        }

        if _, err := conn.Exec(string(content)); err != nil {
            log.Fatalf("failed to execute %s: %v", file, err)
        }
        fmt.Printf("Seeded: %s\n", file)
    }

    fmt.Println("Database seeding completed successfully!")
}
