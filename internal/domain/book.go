package domain

import "time"

// Book is a globally shared catalog entry identified by (title, author).
// Books outlive every club that lists them.
type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// ClubBook is a book selected onto a club's reading list.
type ClubBook struct {
	ID         int64     `json:"id"`
	ClubID     int64     `json:"club_id"`
	BookID     int64     `json:"book_id"`
	SelectedBy int64     `json:"selected_by"`
	DateAdded  time.Time `json:"date_added"`
}

// ClubBookDetail is a reading-list entry together with its book and the
// reviews written by the club's current members.
type ClubBookDetail struct {
	ClubBook
	Book           Book           `json:"book"`
	SelectedByName string         `json:"selected_by_name"`
	Reviews        []ReviewDetail `json:"reviews"`
}
