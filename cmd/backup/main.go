package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"nestcare/internal/config"
	"nestcare/internal/database"
	"nestcare/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	backupService := service.NewBackupService(db)

	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		output := fs.String("output", "nestcare-backup.json", "Output file path")
		fs.Parse(os.Args[2:])

		data, err := backupService.Export(*output)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		fmt.Printf("Exported snapshot %s to %s\n", data.SnapshotID, *output)
		fmt.Printf("  parties: %d, timelines: %d, relations: %d\n",
			len(data.Parties), len(data.Timelines), len(data.Relations))

	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		input := fs.String("input", "", "Input file path (required)")
		clear := fs.Bool("clear", false, "Delete existing rows before importing")
		fs.Parse(os.Args[2:])

		if *input == "" {
			log.Fatal("-input is required")
		}

		if err := backupService.Import(*input, *clear); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %s\n", *input)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: backup <export|import> [flags]")
	fmt.Println()
	fmt.Println("  export  -output FILE")
	fmt.Println("  import  -input FILE [-clear]")
}
