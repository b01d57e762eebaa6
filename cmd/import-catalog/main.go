// import-catalog loads catalog CSV exports into the card database.
//
// Usage: go run main.go -db=<path> -file=<csv> [-dry-run]
//
// Expected columns:
//
//	game_code,game_name,set_code,set_name,card_number,name,version,rarity,card_type,image_url
//
// Games and sets are created on first sight; cards are upserted on their
// (card_number, version) identity so re-importing a newer export is safe.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tcge/card-intel/backend/internal/database"
	"github.com/tcge/card-intel/backend/internal/knowledge"
	"github.com/tcge/card-intel/backend/internal/models"
)

type importStats struct {
	games   int
	sets    int
	created int
	updated int
	skipped int
}

func main() {
	dbPath := flag.String("db", "./card_intel.db", "path to the sqlite database")
	csvPath := flag.String("file", "", "catalog CSV export to import")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("-file is required")
	}

	if err := database.Initialize(*dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	registry, err := knowledge.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load game knowledge base: %v", err)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *csvPath, err)
	}
	defer f.Close()

	stats, err := runImport(database.GetDB(), registry, csv.NewReader(f), *dryRun)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	mode := "imported"
	if *dryRun {
		mode = "would import"
	}
	log.Printf("%s %d new cards, updated %d, skipped %d (%d games, %d sets)",
		mode, stats.created, stats.updated, stats.skipped, stats.games, stats.sets)
}

func runImport(db *gorm.DB, registry *knowledge.Registry, r *csv.Reader, dryRun bool) (*importStats, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"game_code", "set_code", "card_number", "name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	stats := &importStats{}
	gameIDs := map[string]uint{}
	setIDs := map[string]uint{}
	line := 1

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		gameCode := field(row, "game_code")
		setCode := field(row, "set_code")
		number := knowledge.NormalizeCardNumber(field(row, "card_number"))
		name := field(row, "name")
		if gameCode == "" || setCode == "" || number == "" || name == "" {
			stats.skipped++
			continue
		}
		if _, ok := registry.Profile(gameCode); !ok {
			log.Printf("line %d: unknown game %q, skipping", line, gameCode)
			stats.skipped++
			continue
		}
		if dryRun {
			stats.created++
			continue
		}

		gameID, ok := gameIDs[gameCode]
		if !ok {
			game := models.Game{Code: gameCode, Name: field(row, "game_name")}
			if err := db.Where(models.Game{Code: gameCode}).FirstOrCreate(&game).Error; err != nil {
				return nil, fmt.Errorf("line %d: game %s: %w", line, gameCode, err)
			}
			gameID = game.ID
			gameIDs[gameCode] = gameID
			stats.games++
		}

		setKey := gameCode + "/" + setCode
		setID, ok := setIDs[setKey]
		if !ok {
			set := models.CardSet{GameID: gameID, Code: setCode, Name: field(row, "set_name")}
			if err := db.Where(models.CardSet{GameID: gameID, Code: setCode}).FirstOrCreate(&set).Error; err != nil {
				return nil, fmt.Errorf("line %d: set %s: %w", line, setCode, err)
			}
			setID = set.ID
			setIDs[setKey] = setID
			stats.sets++
		}

		card := models.Card{
			CardSetID:  setID,
			CardNumber: number,
			Name:       name,
			Version:    field(row, "version"),
			Rarity:     field(row, "rarity"),
			CardType:   field(row, "card_type"),
			ImageURL:   field(row, "image_url"),
		}
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "card_number"}, {Name: "version"}},
			DoUpdates: clause.AssignmentColumns([]string{"card_set_id", "name", "rarity", "card_type", "image_url"}),
		}).Create(&card)
		if res.Error != nil {
			return nil, fmt.Errorf("line %d: card %s: %w", line, number, res.Error)
		}
		if res.RowsAffected > 0 {
			stats.created++
		} else {
			stats.updated++
		}
	}
	return stats, nil
}
