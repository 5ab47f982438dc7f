package models

import "time"

// SourceStatus is a data source's health. A failed poll degrades the
// source to error; the next successful tick restores it.
type SourceStatus string

const (
	SourceActive SourceStatus = "active"
	SourceError  SourceStatus = "error"
)

// RealtimeDataSource is a named, independently polled producer of fresh
// rows. Created on registration, mutated by every poll tick, destroyed on
// explicit removal. Subscriber callbacks live only for the process.
type RealtimeDataSource struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Endpoint       string        `json:"endpoint"`
	UpdateInterval time.Duration `json:"update_interval"`
	LastUpdated    time.Time     `json:"last_updated"`
	Status         SourceStatus  `json:"status"`
}
