package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"lawchat-backend/service"
	"lawchat-backend/storage"

	"github.com/joho/godotenv"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Manage the statute corpus store.

Usage:
  corpus list [prefix]        list corpus files
  corpus put <file> [name]    upload a statute text, replacing any previous version
  corpus delete <name>        remove a statute text

Corpus files follow the naming convention 법령명(시행일자).txt. After a put or
delete, run rebuild-index to bring the retrieval index in line.`)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	store, err := storage.NewStoreFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize corpus store: %v", err)
	}

	ctx := context.Background()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "list":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		names, err := store.List(ctx, prefix)
		if err != nil {
			log.Fatalf("Failed to list corpus: %v", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}

	case "put":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		file := args[1]
		name := filepath.Base(file)
		if len(args) > 2 {
			name = args[2]
		}

		f, err := os.Open(file)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", file, err)
		}
		defer f.Close()

		if err := store.Put(ctx, name, f); err != nil {
			log.Fatalf("Failed to store %s: %v", name, err)
		}
		log.Printf("Stored %s; run rebuild-index -law %q to index it", name, service.LawTitleFromFilename(name))

	case "delete":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		if err := store.Delete(ctx, args[1]); err != nil {
			log.Fatalf("Failed to delete %s: %v", args[1], err)
		}
		log.Printf("Deleted %s; run rebuild-index to drop its chunks", args[1])

	default:
		usage()
		os.Exit(2)
	}
}
