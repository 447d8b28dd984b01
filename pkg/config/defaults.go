package config

import (
	"net/http"
	"time"
)

// Default values.
const (
	DefaultPort         = 3001
	DefaultMaxBodySize  = 1 << 20
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Default returns the stock deployment: notes at /notes with sequential ids
// and persons at /api/persons with random ids, both seeded.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		LogLevel:     "info",
		LogFormat:    "text",
		MaxBodySize:  DefaultMaxBodySize,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		CORS: CORSConfig{
			Enabled:      true,
			AllowOrigins: []string{"*"},
		},
		Echo:    true,
		Metrics: true,
		Resources: []ResourceConfig{
			{
				Kind:         KindNote,
				Path:         "/notes",
				IDStrategy:   "max",
				CreateStatus: http.StatusOK,
				Seed: []map[string]any{
					{"id": 0, "content": "This is express server", "date": "2019-05-30T17:30:31.098Z", "important": true},
					{"id": 1, "content": "HTML is easy and this is express", "date": "2019-05-30T17:30:31.098Z", "important": true},
					{"id": 2, "content": "Browser can execute only Javascript", "date": "2019-05-30T18:39:34.091Z", "important": false},
					{"id": 3, "content": "GET and POST are the most important methods of HTTP protocol", "date": "2019-05-30T19:20:14.298Z", "important": true},
				},
			},
			{
				Kind:         KindPerson,
				Path:         "/api/persons",
				IDStrategy:   "random",
				CreateStatus: http.StatusNoContent,
				Seed: []map[string]any{
					{"id": 1, "name": "Arto Hellas", "number": "040-123456"},
					{"id": 2, "name": "Ada Lovelace", "number": "39-44-5323523"},
					{"id": 3, "name": "Dan Abramov", "number": "12-43-234345"},
					{"id": 4, "name": "Mary Poppendieck", "number": "39-23-6423122"},
				},
			},
		},
	}
}
