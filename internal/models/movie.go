package models

type Movie struct {
	ID         int     `gorm:"primaryKey;autoIncrement:false" json:"id" example:"597"`
	Title      string  `gorm:"size:200;not null;index" json:"title" example:"Titanic"`
	Budget     int64   `gorm:"not null;index" json:"budget" example:"200000000"`
	Homepage   string  `gorm:"size:200;not null" json:"homepage" example:"http://www.titanicmovie.com/"`
	Overview   string  `gorm:"type:text;not null" json:"overview" example:"101-year-old Rose DeWitt Bukater tells the story of her life aboard the Titanic."`
	Popularity float64 `gorm:"not null;index" json:"popularity" example:"38.116"`
	Genres     []Genre `gorm:"many2many:movie_genres;" json:"genres"`
}

func (Movie) TableName() string {
	return "movies"
}
