package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/murata-lab/memtree/internal/cli"
)

func main() {
	// Load .env from current dir, then from executable dir
	_ = godotenv.Load()
	if exe, err := os.Executable(); err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exe), ".env"))
	}

	cli.Execute()
}
