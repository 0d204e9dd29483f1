package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"kanaset/internal/charmap"
	"kanaset/internal/manifest"
	"kanaset/internal/tui"
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	dir := os.Getenv("KANASET_OUTPUT_DIR")
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}
	if dir == "" {
		fmt.Println("Usage: kanaset-browse <output_dir>")
		os.Exit(1)
	}

	m, err := manifest.Load(dir)
	if err != nil {
		log.Fatalf("failed to load manifest: %v", err)
	}
	cm, err := charmap.Load(dir)
	if err != nil {
		log.Fatalf("failed to load character map: %v", err)
	}
	ds := tui.Dataset{Manifest: m}
	if err := ds.Verify(cm); err != nil {
		log.Fatalf("dataset is inconsistent: %v", err)
	}

	if _, err := tea.NewProgram(tui.New(ds)).Run(); err != nil {
		log.Fatal(err)
	}
}
