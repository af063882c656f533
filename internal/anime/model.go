package anime

import "github.com/adamwoolhether/animeshelf/jikan"

type pageParams struct {
	Page int `json:"page" validate:"min=1,max=10000"`
}

type idParams struct {
	ID int `json:"id" validate:"min=1"`
}

// HomePage is the landing page: a featured title plus the head of the
// first page of the current and upcoming seasons. Featured is null when
// the current season list is empty.
type HomePage struct {
	Featured *jikan.Anime    `json:"featured"`
	Recent   jikan.AnimeList `json:"recent"`
	Upcoming jikan.AnimeList `json:"upcoming"`
}

// Health reports liveness and the upstream queue.
type Health struct {
	Status string      `json:"status"`
	Queue  QueueHealth `json:"queue"`
}

type QueueHealth struct {
	State      string `json:"state"`
	Pending    int    `json:"pending"`
	CooldownMS int64  `json:"cooldown_ms"`
}
