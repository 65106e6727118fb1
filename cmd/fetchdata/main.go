package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/voxelsrv/pkg/gamedata"
	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

func main() {
	var (
		src      = flag.String("src", "", "go-getter source of a block palette JSON (file, http, git::...)")
		out      = flag.String("o", "./data/blocks.json", "output file path")
		defaults = flag.Bool("default", false, "write the built-in palette instead of fetching")
	)
	flag.Parse()

	if *out == "" {
		log.Fatal("output path required")
	}
	if !*defaults && *src == "" {
		log.Fatal("either -src or -default is required")
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	if *defaults {
		if err := writeDefault(*out); err != nil {
			log.Fatal(err)
		}
		log.Default().Printf("wrote built-in palette to %s", *out)
		return
	}

	log.Default().Printf("start downloading block data %s", *src)
	if err := get.GetFile(*out, *src); err != nil {
		log.Fatalf("download %s: %v", *src, err)
	}

	blocks, err := check(*out)
	if err != nil {
		_ = os.Remove(*out)
		log.Fatal(err)
	}
	log.Default().Printf("done downloading block data %s: %d blocks", *out, blocks.Len())
}

// check verifies the file parses as a palette and carries every block the
// terrain generators use.
func check(path string) (*gamedata.Blocks, error) {
	blocks, err := gamedata.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := gen.NewNormalGenerator(0, blocks); err != nil {
		return nil, fmt.Errorf("palette unusable for terrain: %w", err)
	}
	return blocks, nil
}

func writeDefault(path string) error {
	data, err := json.MarshalIndent(gamedata.DefaultBlocks().All(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal palette: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
