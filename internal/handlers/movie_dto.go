package handlers

// MovieRequest documents the AddMovie body. Genres may also be given as
// {"id": 18, "name": "Drama"} objects.
type MovieRequest struct {
	ID         int     `json:"id" example:"19995"`
	Title      string  `json:"title" example:"Avatar"`
	Budget     int64   `json:"budget" example:"237000000"`
	Homepage   string  `json:"homepage" example:"http://www.avatarmovie.com/"`
	Overview   string  `json:"overview" example:"In the 22nd century, a paraplegic Marine is dispatched to the moon Pandora."`
	Popularity float64 `json:"popularity" example:"150.437577"`
	Genres     []int   `json:"genres" example:"28,12"`
}
