package storage

import "time"

// Level is the persisted identity of a world. Once written it wins over
// the configured seed and generator so an existing world keeps its terrain.
type Level struct {
	Name      string    `json:"name"`
	Seed      int64     `json:"seed"`
	Generator string    `json:"generator"`
	Created   time.Time `json:"created"`
	Spawn     [3]int    `json:"spawn"`
}
