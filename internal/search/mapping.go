package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for search documents.
//
// Text fields (title, author, content, excerpt) use the English analyzer for
// stemming. Identity fields (type, owner_id, book_id) use the keyword analyzer
// so they only ever match exactly - owner scoping must never stem or tokenize.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = en.AnalyzerName
	authorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("author", authorFieldMapping)

	// Content - searchable but not stored (can be large)
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = en.AnalyzerName
	contentFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	excerptFieldMapping := bleve.NewTextFieldMapping()
	excerptFieldMapping.Analyzer = en.AnalyzerName
	excerptFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("excerpt", excerptFieldMapping)

	// --- Keyword fields (exact match filters) ---

	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	ownerFieldMapping := bleve.NewTextFieldMapping()
	ownerFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("owner_id", ownerFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// --- Stored-only fields (returned in hits, not searched) ---

	coverFieldMapping := bleve.NewTextFieldMapping()
	coverFieldMapping.Analyzer = keyword.Name
	coverFieldMapping.Store = true
	coverFieldMapping.Index = false
	docMapping.AddFieldMappingsAt("cover_url", coverFieldMapping)

	externalIDFieldMapping := bleve.NewTextFieldMapping()
	externalIDFieldMapping.Analyzer = keyword.Name
	externalIDFieldMapping.Store = true
	externalIDFieldMapping.Index = false
	docMapping.AddFieldMappingsAt("external_id", externalIDFieldMapping)

	bookIDFieldMapping := bleve.NewTextFieldMapping()
	bookIDFieldMapping.Analyzer = keyword.Name
	bookIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("book_id", bookIDFieldMapping)

	chapterFieldMapping := bleve.NewTextFieldMapping()
	chapterFieldMapping.Analyzer = keyword.Name
	chapterFieldMapping.Store = true
	chapterFieldMapping.Index = false
	docMapping.AddFieldMappingsAt("chapter", chapterFieldMapping)

	// --- Numeric fields ---

	pageFieldMapping := bleve.NewNumericFieldMapping()
	pageFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("page", pageFieldMapping)

	// created_at orders ties deterministically (newest first).
	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
