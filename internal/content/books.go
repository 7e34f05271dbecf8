package content

import "fmt"

// Book is a grade/semester container of chapters
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	Grade        int       `json:"grade"`
	Semester     string    `json:"semester"` // upper or lower
	Description  string    `json:"description"`
	TotalModules int       `json:"totalModules"`
	Difficulty   string    `json:"difficulty"`
	IsActive     bool      `json:"isActive"`
	Chapters     []Chapter `json:"chapters"`
}

// Chapter is an ordered group of modules within a book
type Chapter struct {
	ID               string   `json:"id"`
	BookID           string   `json:"bookId"`
	Number           int      `json:"number"`
	Title            string   `json:"title"`
	ModuleIDs        []string `json:"moduleIds"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
}

// ContainsModule reports whether the chapter references the module id
func (c *Chapter) ContainsModule(moduleID string) bool {
	for _, id := range c.ModuleIDs {
		if id == moduleID {
			return true
		}
	}
	return false
}

// unitTitles maps book id to its ten unit themes, in chapter order
var unitTitles = map[string][10]string{
	"grade1-upper": {"greetings", "names and identity", "classroom commands", "colors", "this and that", "classroom objects", "asking yes no questions", "counting", "age and birthday", "family"},
	"grade1-lower": {"professions", "prepositions of place", "counting and locating", "body parts", "farm animals", "describing animals", "there is there are", "clothes", "sports", "lets play"},
	"grade2-upper": {"likes and dislikes", "food preferences", "do you like", "he likes clothes", "daily routines", "weekend activities", "transportation", "weekend routines", "seasons", "holidays"},
	"grade2-lower": {"weather and activities", "describing actions", "negations and questions", "whats he doing", "playing games", "usually and now", "childrens day", "movement and direction", "giving directions", "locations"},
	"grade3-upper": {"food and cutlery", "ongoing actions", "these and those", "abilities", "asking for permission", "possessions", "health problems", "possessive s", "future activities", "travel plans"},
	"grade3-lower": {"describing people", "describing places", "weekend plans", "counting fruit", "plans for the week", "body parts", "asking how many", "school reports", "then and now", "asking about the past"},
	"grade4-upper": {"past events and friends", "helping at home", "what i didnt do", "inventions", "school trips", "story time", "asking about the past", "past activities", "accidents", "healthy habits"},
	"grade4-lower": {"rules and warnings", "shopping and prices", "storytelling", "music and feelings", "present activities", "future plans suggestions", "telling the time", "directions and locations", "countries and animals", "holiday plans"},
	"grade5-upper": {"changes around us", "shopping time", "festivals", "future plans", "its mine", "abilities and sports", "helpful animals", "school life", "feelings", "rules and advice"},
	"grade5-lower": {"driver player", "traditional food", "library borrow", "letters seasons", "shopping carrying", "travel plans", "jobs time", "make a kite", "theatre history", "travel prep"},
	"grade6-upper": {"how long", "chinatown tombs", "stamps hobbies", "festivals", "pen friends", "school answers", "animals", "habits tidy", "peace un", "travel safety"},
	"grade6-lower": {"ordering food", "plans and weather", "past events", "describing actions", "simultaneous actions", "gifts and past actions", "famous people", "asking why", "best wishes", "future school life"},
}

var gradeDifficulty = map[int]string{
	1: "beginner", 2: "beginner",
	3: "elementary", 4: "elementary",
	5: "intermediate", 6: "intermediate",
}

var semesterLetter = map[string]string{"upper": "A", "lower": "B"}

// DefaultBooks returns the full six-grade catalog: twelve books, each with
// ten single-module chapters.
func DefaultBooks() []Book {
	books := make([]Book, 0, 12)
	for grade := 1; grade <= 6; grade++ {
		for _, semester := range []string{"upper", "lower"} {
			books = append(books, buildBook(grade, semester))
		}
	}
	return books
}

// BookID returns the conventional book id for a grade and semester
func BookID(grade int, semester string) string {
	return fmt.Sprintf("grade%d-%s", grade, semester)
}

func buildBook(grade int, semester string) Book {
	bookID := BookID(grade, semester)
	titles := unitTitles[bookID]

	chapters := make([]Chapter, 0, 10)
	for n := 1; n <= 10; n++ {
		chapters = append(chapters, Chapter{
			ID:               fmt.Sprintf("g%d%s-ch%d", grade, semester[:1], n),
			BookID:           bookID,
			Number:           n,
			Title:            fmt.Sprintf("Unit %d: %s", n, titles[n-1]),
			ModuleIDs:        []string{fmt.Sprintf("grade%d-%s-mod-%02d", grade, semester, n)},
			EstimatedMinutes: 25,
		})
	}

	return Book{
		ID:           bookID,
		Title:        fmt.Sprintf("Grade %d %s", grade, semesterLetter[semester]),
		Subtitle:     fmt.Sprintf("English Adventure Grade %d%s", grade, semesterLetter[semester]),
		Grade:        grade,
		Semester:     semester,
		Description:  fmt.Sprintf("Grade %d %s semester English, ten thematic units", grade, semester),
		TotalModules: 10,
		Difficulty:   gradeDifficulty[grade],
		IsActive:     true,
		Chapters:     chapters,
	}
}

// NextRecommendedBook returns the book that naturally follows the given one:
// the lower semester of the same grade, then the upper semester of the next.
func NextRecommendedBook(books []Book, currentBookID string) (Book, bool) {
	var current *Book
	for i := range books {
		if books[i].ID == currentBookID {
			current = &books[i]
			break
		}
	}
	if current == nil {
		return Book{}, false
	}

	var nextID string
	if current.Semester == "upper" {
		nextID = fmt.Sprintf("grade%d-lower", current.Grade)
	} else if current.Grade < 6 {
		nextID = fmt.Sprintf("grade%d-upper", current.Grade+1)
	} else {
		return Book{}, false
	}
	for i := range books {
		if books[i].ID == nextID && books[i].IsActive {
			return books[i], true
		}
	}
	return Book{}, false
}
