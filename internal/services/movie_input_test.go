package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMovieInput(t *testing.T) {
	body := []byte(`{
		"id": 597,
		"title": "Titanic",
		"budget": 200000000,
		"homepage": "http://www.titanicmovie.com/",
		"overview": "101-year-old Rose DeWitt Bukater tells the story of her life.",
		"popularity": 38.116,
		"genres": [{"id": 18, "name": "Drama"}, 10749]
	}`)

	in, err := DecodeMovieInput(body)
	require.NoError(t, err)
	assert.Equal(t, 597, *in.ID)
	assert.Equal(t, "Titanic", *in.Title)
	assert.Equal(t, int64(200000000), *in.Budget)
	assert.InDelta(t, 38.116, *in.Popularity, 1e-9)
	assert.Equal(t, []GenreRef{{ID: 18, Name: "Drama"}, {ID: 10749}}, in.Genres)
	assert.Nil(t, in.Validate())
}

func TestDecodeMovieInputReportsEveryMalformedField(t *testing.T) {
	body := []byte(`{"id": "abc", "budget": 1.5, "popularity": "high", "title": 7, "genres": [null, "x", {"name": "Drama"}]}`)

	_, err := DecodeMovieInput(body)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	assert.Equal(t, []string{msgInvalidInteger}, verr.Fields["id"])
	assert.Equal(t, []string{msgInvalidInteger}, verr.Fields["budget"])
	assert.Equal(t, []string{msgInvalidNumber}, verr.Fields["popularity"])
	assert.Equal(t, []string{msgInvalidString}, verr.Fields["title"])
	assert.Len(t, verr.Fields["genres"], 3)
}

func TestDecodeMovieInputRejectsNonObjects(t *testing.T) {
	for _, body := range []string{`[1,2]`, `null`, `not json`, ``} {
		_, err := DecodeMovieInput([]byte(body))
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), body)
		assert.Equal(t, []string{msgInvalidBody}, verr.Fields["non_field_errors"])
	}
}

func TestDecodeMovieInputGenresMustBeList(t *testing.T) {
	_, err := DecodeMovieInput([]byte(`{"genres": 18}`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{msgInvalidList}, verr.Fields["genres"])
}

func TestValidateMissingFields(t *testing.T) {
	title := "Only a title"
	verr := (&MovieInput{Title: &title}).Validate()
	require.NotNil(t, verr)
	assert.Equal(t, []string{msgRequired}, verr.Fields["id"])
	assert.NotContains(t, verr.Fields, "title")
	assert.Equal(t, []string{msgRequired}, verr.Fields["budget"])
	assert.Equal(t, []string{msgRequired}, verr.Fields["homepage"])
	assert.Equal(t, []string{msgRequired}, verr.Fields["overview"])
	assert.Equal(t, []string{msgRequired}, verr.Fields["popularity"])
	assert.Contains(t, verr.Error(), "budget: This field is required.")
}

func TestDecodeMovieInputReportsTypeAndMissingFieldsTogether(t *testing.T) {
	_, err := DecodeMovieInput([]byte(`{"id": "one", "budget": 10, "homepage": "", "overview": "x", "popularity": 1}`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	assert.Equal(t, map[string][]string{
		"id":       {msgInvalidInteger},
		"title":    {msgRequired},
		"homepage": {msgBlank},
	}, verr.Fields)
}

func TestDecodeMovieInputNullIsMissing(t *testing.T) {
	_, err := DecodeMovieInput([]byte(`{"id": null, "title": "T", "budget": null, "homepage": "h", "overview": "o", "popularity": 1}`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	assert.Equal(t, map[string][]string{
		"id":     {msgRequired},
		"budget": {msgRequired},
	}, verr.Fields)
}

func TestDecodeMovieInputIntegers(t *testing.T) {
	tests := []struct {
		raw   string
		want  int64
		valid bool
	}{
		{raw: `7`, want: 7, valid: true},
		{raw: `7.0`, want: 7, valid: true},
		{raw: `"7"`, want: 7, valid: true},
		{raw: `-3`, want: -3, valid: true},
		{raw: `1e3`, want: 1000, valid: true},
		{raw: `300000000`, want: 300000000, valid: true},
		{raw: `7.5`},
		{raw: `"seven"`},
		{raw: `true`},
		{raw: `[7]`},
		{raw: `1e30`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			body := []byte(`{"id": ` + tt.raw + `, "title": "T", "budget": ` + tt.raw + `, "homepage": "h", "overview": "o", "popularity": 1}`)
			in, err := DecodeMovieInput(body)
			if !tt.valid {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, []string{msgInvalidInteger}, verr.Fields["id"])
				assert.Equal(t, []string{msgInvalidInteger}, verr.Fields["budget"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int(tt.want), *in.ID)
			assert.Equal(t, tt.want, *in.Budget)
		})
	}
}

func TestCatalogErrorIs(t *testing.T) {
	err := &CatalogError{Kind: KindInvalidSort, Message: "other message"}
	assert.True(t, errors.Is(err, ErrInvalidSort))
	assert.False(t, errors.Is(err, ErrInvalidGenre))
	assert.Equal(t, "Genre does not exist.", ErrInvalidGenre.Error())
	assert.Equal(t, KindValidationError, NewValidationError().Kind())
}

func TestInvalidSortOptionsAreIndependent(t *testing.T) {
	assert.Equal(t, SortOptions, ErrInvalidSort.Options)

	saved := SortOptions[0]
	SortOptions[0] = "title"
	t.Cleanup(func() { SortOptions[0] = saved })

	assert.Equal(t, "budget", ErrInvalidSort.Options[0])
}
