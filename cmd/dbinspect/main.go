// Package main provides a read-only inspector for the Marginalia database.
//
// It opens the Badger store read-only, counts records per key prefix, and
// prints a short summary of books and notes per owner.
//
// Usage:
//
//	DB_PATH=~/Marginalia/data/db go run ./cmd/dbinspect
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Marginalia/data/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	prefixCounts := map[string]int{}
	booksPerOwner := map[string]int{}
	notesPerOwner := map[string]int{}
	taggedNotes := 0

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			switch {
			case strings.HasPrefix(key, "book:"):
				prefixCounts["book"]++
				if err := item.Value(func(val []byte) error {
					var book domain.LibraryBook
					if err := json.Unmarshal(val, &book); err != nil {
						return err
					}
					booksPerOwner[book.OwnerID]++
					return nil
				}); err != nil {
					fmt.Printf("  unreadable book at %s: %v\n", key, err)
				}
			case strings.HasPrefix(key, "note:"):
				prefixCounts["note"]++
				if err := item.Value(func(val []byte) error {
					var note domain.Note
					if err := json.Unmarshal(val, &note); err != nil {
						return err
					}
					notesPerOwner[note.OwnerID]++
					if len(note.Tags) > 0 {
						taggedNotes++
					}
					return nil
				}); err != nil {
					fmt.Printf("  unreadable note at %s: %v\n", key, err)
				}
			case strings.HasPrefix(key, "idx:"):
				prefixCounts["index"]++
			default:
				prefixCounts["other"]++
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Inspection failed: %v", err)
	}

	fmt.Printf("Books:       %d\n", prefixCounts["book"])
	fmt.Printf("Notes:       %d (%d tagged)\n", prefixCounts["note"], taggedNotes)
	fmt.Printf("Index keys:  %d\n", prefixCounts["index"])
	fmt.Printf("Other keys:  %d\n", prefixCounts["other"])
	fmt.Println()

	if len(booksPerOwner) > 0 {
		fmt.Println("Library sizes by owner:")
		for owner, n := range booksPerOwner {
			fmt.Printf("  %-30s %3d books %3d notes\n", owner, n, notesPerOwner[owner])
		}
	}
}
