package jikan

import "strings"

// Anime is a single title as returned by the API.
type Anime struct {
	MalID    int      `json:"mal_id"`
	Title    string   `json:"title"`
	Images   Images   `json:"images"`
	Synopsis string   `json:"synopsis"`
	Score    float64  `json:"score"`
	Aired    Aired    `json:"aired"`
	Episodes *int     `json:"episodes"`
	Status   string   `json:"status"`
	Genres   []Entity `json:"genres"`
	Themes   []Entity `json:"themes"`
	Studios  []Entity `json:"studios"`
}

// Images holds the cover art URLs.
type Images struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
}

// Aired is the airing window. To is nil while a show is still airing.
type Aired struct {
	From string  `json:"from"`
	To   *string `json:"to"`
}

// Entity is a named reference such as a genre, theme or studio.
type Entity struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

// Pagination describes the position of a list page.
type Pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
}

// AnimeList is one page of a list endpoint.
type AnimeList struct {
	Data       []Anime    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type animeResponse struct {
	Data Anime `json:"data"`
}

// EmptyList is the page served in place of a list that could not be
// fetched.
func EmptyList() AnimeList {
	return AnimeList{
		Data:       []Anime{},
		Pagination: Pagination{LastVisiblePage: 1, HasNextPage: false},
	}
}

// FeatureMinScore is the lowest score considered for the featured slot.
const FeatureMinScore = 7.5

// PickFeatured chooses the title to headline a page. Well-scored titles
// with a synopsis are preferred, picked by intn among the first three of
// them; otherwise the first title is used. It returns false for an empty
// list.
func PickFeatured(list []Anime, intn func(n int) int) (Anime, bool) {
	if len(list) == 0 {
		return Anime{}, false
	}

	var candidates []Anime
	for _, a := range list {
		if a.Score >= FeatureMinScore && strings.TrimSpace(a.Synopsis) != "" {
			candidates = append(candidates, a)
		}
	}

	if len(candidates) == 0 {
		return list[0], true
	}

	return candidates[intn(min(3, len(candidates)))], true
}
