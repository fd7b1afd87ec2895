package models

type Genre struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false" json:"id" example:"28"`
	Name string `gorm:"size:50;not null;index" json:"name" example:"Action"`
}

func (Genre) TableName() string {
	return "genres"
}

// MovieGenre is the join row behind Movie.Genres. The composite key keeps
// a movie/genre pair unique.
type MovieGenre struct {
	MovieID int `gorm:"primaryKey;autoIncrement:false"`
	GenreID int `gorm:"primaryKey;autoIncrement:false;index"`
}

func (MovieGenre) TableName() string {
	return "movie_genres"
}
