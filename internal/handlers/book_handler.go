package handlers

import (
	"net/http"

	"wordquest/internal/content"
	"wordquest/internal/service"
)

// BookHandler serves the book catalog and per-user book progress
type BookHandler struct {
	catalog *content.Catalog
	books   *service.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(catalog *content.Catalog, books *service.BookService) *BookHandler {
	return &BookHandler{catalog: catalog, books: books}
}

// ListBooks returns every active book with the user's completion
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books := h.catalog.ListBooks()
	views := make([]BookView, 0, len(books))
	for _, b := range books {
		completion, _ := h.books.BookCompletion(b.ID)
		views = append(views, BookView{
			Book:       b,
			Completion: completion,
			Unlocked:   h.books.IsBookUnlocked(b.ID),
			CanUnlock:  h.books.CanUnlockBook(b.ID),
		})
	}
	respondJSON(w, http.StatusOK, views)
}

// GetBook returns one book with per-chapter progress
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	book, ok := h.catalog.Book(bookID)
	if !ok {
		respondServiceError(w, service.ErrBookNotFound)
		return
	}

	chapters := make([]ChapterView, 0, len(book.Chapters))
	for _, ch := range book.Chapters {
		view := ChapterView{Chapter: ch}
		// Chapter progress is only tracked within the current book
		if bookID == h.books.CurrentBookID() {
			if progress, completed, err := h.books.ChapterProgress(ch.ID); err == nil {
				view.Progress = progress
				view.Completed = completed
			}
		}
		chapters = append(chapters, view)
	}

	completion, _ := h.books.BookCompletion(bookID)
	respondJSON(w, http.StatusOK, struct {
		BookView
		ChapterViews []ChapterView `json:"chapters"`
	}{
		BookView: BookView{
			Book:       *book,
			Completion: completion,
			Unlocked:   h.books.IsBookUnlocked(bookID),
			CanUnlock:  h.books.CanUnlockBook(bookID),
		},
		ChapterViews: chapters,
	})
}

type currentBookRequest struct {
	BookID string `json:"bookId"`
}

// SetCurrentBook switches the user's current book
func (h *BookHandler) SetCurrentBook(w http.ResponseWriter, r *http.Request) {
	var req currentBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.books.SetCurrentBook(req.BookID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"currentBookId": req.BookID})
}

// Progress returns the user's full book progress state
func (h *BookHandler) Progress(w http.ResponseWriter, r *http.Request) {
	state, err := h.books.State()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// UnlockBook adds a book to the user's unlocked set
func (h *BookHandler) UnlockBook(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	if err := h.books.UnlockBook(bookID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

// NextBook returns the recommended follow-up to the current book
func (h *BookHandler) NextBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.books.NextBook()
	if !ok {
		respondServiceError(w, service.ErrBookNotFound)
		return
	}
	respondJSON(w, http.StatusOK, book)
}
