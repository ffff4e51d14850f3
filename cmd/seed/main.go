// Package main provides a tool to seed the database with sample reading data.
//
// It creates a handful of library books and tagged notes for a test user so
// search, recommendations, and the notes API have something to chew on during
// local development.
//
// Usage:
//
//	DB_PATH=~/Marginalia/data/db go run ./cmd/seed
//	DB_PATH=~/Marginalia/data/db go run ./cmd/seed --user user-demo
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/marginalia-app/marginalia-server/internal/domain"
	"github.com/marginalia-app/marginalia-server/internal/id"
	"github.com/marginalia-app/marginalia-server/internal/store"
)

var userID = flag.String("user", "user-demo", "Owner ID for the seeded books and notes")

type seedBook struct {
	title      string
	author     string
	externalID string
	notes      []seedNote
}

type seedNote struct {
	markdown string
	page     int
	tags     []string
}

var library = []seedBook{
	{
		title:      "The Left Hand of Darkness",
		author:     "Ursula K. Le Guin",
		externalID: "OL59807W",
		notes: []seedNote{
			{
				markdown: "Winter as a **character**, not a setting. The Gethenians' ambisexuality reframes every political exchange.",
				page:     94,
				tags:     []string{"sci-fi", "gender", "politics"},
			},
			{
				markdown: "> Light is the left hand of darkness\n\nThe title drops mid-poem and recontextualizes the whole book.",
				page:     233,
				tags:     []string{"sci-fi", "poetry"},
			},
		},
	},
	{
		title:      "Invisible Cities",
		author:     "Italo Calvino",
		externalID: "OL77741W",
		notes: []seedNote{
			{
				markdown: "Every city is Venice. Marco Polo admits it halfway through and Kublai pretends not to hear.",
				page:     86,
				tags:     []string{"cities", "memory"},
			},
		},
	},
	{
		title:      "Parable of the Sower",
		author:     "Octavia Butler",
		externalID: "OL98243W",
		notes: []seedNote{
			{
				markdown: "Hyperempathy as a *survival liability*. Lauren's journal entries read like field notes from ten years out.",
				page:     41,
				tags:     []string{"sci-fi", "climate", "politics"},
			},
		},
	},
	{
		title:      "The Order of Time",
		author:     "Carlo Rovelli",
		externalID: "OL17716275W",
		notes:      nil,
	},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Marginalia/data/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	books := 0
	notes := 0
	for _, sb := range library {
		book := &domain.LibraryBook{
			ID:         id.MustGenerate(id.PrefixBook),
			OwnerID:    *userID,
			Title:      sb.title,
			Author:     sb.author,
			ExternalID: sb.externalID,
			AddedAt:    time.Now(),
		}
		if err := s.AddToLibrary(ctx, book); err != nil {
			fmt.Printf("  skip %q: %v\n", sb.title, err)
			continue
		}
		books++
		fmt.Printf("  + %s (%s)\n", book.Title, book.ID)

		for _, sn := range sb.notes {
			now := time.Now()
			note := &domain.Note{
				ID:         id.MustGenerate(id.PrefixNote),
				OwnerID:    *userID,
				BookID:     book.ID,
				Markdown:   sn.markdown,
				Page:       sn.page,
				Tags:       sn.tags,
				Visibility: domain.VisibilityPrivate,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.CreateNote(ctx, note); err != nil {
				fmt.Printf("    skip note: %v\n", err)
				continue
			}
			notes++
		}
	}

	fmt.Printf("\nSeeded %d books and %d notes for %s\n", books, notes, *userID)
	fmt.Println("Delete the search dir before restarting the server to force an index rebuild.")
}
