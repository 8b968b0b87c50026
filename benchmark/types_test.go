package benchmark

import "time"

type Config struct {
	Host string
	Port int
}

type Logger struct {
	Level string
}

type Database struct {
	Config *Config
	Logger *Logger
}

type Cache struct {
	Logger *Logger
}

type Repository struct {
	DB    *Database
	Cache *Cache
}

type Service struct {
	Repo   *Repository
	Logger *Logger
}

// Worker sleeps for Work in both its init and destroy methods.
type Worker struct {
	Port int
	Work time.Duration
}

func (w *Worker) Start() {
	time.Sleep(w.Work)
}

func (w *Worker) Stop() {
	time.Sleep(w.Work)
}
