package service

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/marginalia-app/marginalia-server/internal/domain"
)

// maxTrendingBooks caps how many books each sampled category shows.
const maxTrendingBooks = 4

// Candidate pools the trending panels sample from. Deliberately broad and
// static: trending here means "worth browsing", not live popularity data.
var (
	trendingAuthors = []string{
		"Ursula K. Le Guin",
		"Octavia Butler",
		"Haruki Murakami",
		"Toni Morrison",
		"Italo Calvino",
		"Gabriel Garcia Marquez",
		"Virginia Woolf",
		"Jorge Luis Borges",
		"Kazuo Ishiguro",
		"Clarice Lispector",
	}

	trendingGenres = []string{
		"science fiction",
		"magical realism",
		"historical fiction",
		"detective fiction",
		"philosophy",
		"poetry",
		"biography",
		"travel writing",
		"horror",
		"essays",
	}

	trendingTopics = []string{
		"artificial intelligence",
		"climate change",
		"ancient rome",
		"deep sea",
		"linguistics",
		"cryptography",
		"mythology",
		"urbanism",
		"astronomy",
		"cooking",
	}
)

// TrendingService builds a browsing panel by sampling a few categories from
// each pool and fetching a handful of catalog books for each.
type TrendingService struct {
	catalog catalogSource
	slots   int
	logger  *slog.Logger
}

// NewTrendingService creates a new trending service. slots is how many
// categories each panel samples (defaults to 3).
func NewTrendingService(catalog catalogSource, slots int, logger *slog.Logger) *TrendingService {
	if slots <= 0 {
		slots = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrendingService{
		catalog: catalog,
		slots:   slots,
		logger:  logger,
	}
}

// trendingSlot is one sampled category being fetched.
type trendingSlot struct {
	name  string
	books []domain.Book
}

// Trending returns freshly sampled author, genre, and topic panels. All slot
// fetches run concurrently; a slot whose catalog query fails keeps its sampled
// name with an empty book list rather than failing the response. The panel
// always carries exactly the sampled names.
func (s *TrendingService) Trending(ctx context.Context) (*domain.TrendingPanel, error) {
	authorSlots := s.newSlots(trendingAuthors)
	genreSlots := s.newSlots(trendingGenres)
	topicSlots := s.newSlots(trendingTopics)

	// Plain errgroup, no shared context cancellation: slot failures are kept,
	// not propagated, so there is nothing to cancel the siblings over.
	var g errgroup.Group
	for _, slots := range [][]trendingSlot{authorSlots, genreSlots, topicSlots} {
		for i := range slots {
			slot := &slots[i]
			g.Go(func() error {
				books, err := s.catalog.Search(ctx, slot.name)
				if err != nil {
					s.logger.Warn("trending slot fetch failed, keeping empty slot",
						"category", slot.name,
						"error", err,
					)
					return nil
				}
				if len(books) > maxTrendingBooks {
					books = books[:maxTrendingBooks]
				}
				slot.books = books
				return nil
			})
		}
	}
	_ = g.Wait()

	return &domain.TrendingPanel{
		Authors: collectSlots(authorSlots),
		Genres:  collectSlots(genreSlots),
		Topics:  collectSlots(topicSlots),
	}, nil
}

func (s *TrendingService) newSlots(pool []string) []trendingSlot {
	names := samplePool(pool, s.slots)
	slots := make([]trendingSlot, len(names))
	for i, name := range names {
		slots[i].name = name
	}
	return slots
}

// collectSlots keeps slots in their sampled order, empty-fetch ones included.
func collectSlots(slots []trendingSlot) []domain.TrendingEntry {
	entries := make([]domain.TrendingEntry, 0, len(slots))
	for _, slot := range slots {
		books := slot.books
		if books == nil {
			books = []domain.Book{}
		}
		entries = append(entries, domain.TrendingEntry{Name: slot.name, Books: books})
	}
	return entries
}

// samplePool returns n distinct random entries from pool, or the whole pool
// when it is smaller than n.
func samplePool(pool []string, n int) []string {
	if n >= len(pool) {
		out := make([]string, len(pool))
		copy(out, pool)
		return out
	}

	perm := rand.Perm(len(pool))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, pool[idx])
	}
	return out
}
